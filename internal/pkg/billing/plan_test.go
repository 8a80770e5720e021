package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plus", "plus", "plus"},
		{"pro", "pro", "pro"},
		{"free", "free", "free"},
		{"uppercase", "PRO", "pro"},
		{"whitespace", "  plus ", "plus"},
		{"unknown falls to free", "enterprise", "free"},
		{"empty falls to free", "", "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePlan(tt.input))
		})
	}
}

func TestPlanRank(t *testing.T) {
	assert.Greater(t, planRank("pro"), planRank("plus"))
	assert.Greater(t, planRank("plus"), planRank("free"))
	assert.Equal(t, planRank("free"), planRank("garbage"))
}

func TestIsEntitlingStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"active", true},
		{"trialing", true},
		{"Active", true},
		{"past_due", false},
		{"canceled", false},
		{"unpaid", false},
		{"incomplete", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, isEntitlingStatus(tt.status))
		})
	}
}
