package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerStartStopRestart(t *testing.T) {
	m := &Manager{
		scanner: testScanner(newFakeStore(), nil, nil, nil),
		stopCh:  make(chan struct{}),
	}

	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())

	// Stop must leave the stop channel usable so workers winding down never
	// select on nil, and the manager can be started again.
	m.Stop()
	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())

	// Stop on a stopped manager is a no-op.
	m.Stop()
	assert.False(t, m.IsRunning())
}
