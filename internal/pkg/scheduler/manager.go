package scheduler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/askdrhq/askdr/internal/pkg/env"
	metrics "github.com/askdrhq/askdr/internal/pkg/metrics/counter"
)

// Manager runs the reminder scan loop and the feature-counter flush worker.
type Manager struct {
	scanner            *Scanner
	scanTicker         *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global scheduler manager (singleton).
func GetManager(db *gorm.DB) *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			scanner: NewScannerFromDB(db),
			stopCh:  make(chan struct{}),
		}
	})
	return globalManager
}

// scanInterval reads the scan cadence from the environment, default 60s.
func scanInterval() time.Duration {
	if raw := env.GetEnv("REMINDER_SCAN_INTERVAL_SECONDS", ""); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 60 * time.Second
}

// Start starts the scan loop and background workers.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Scheduler Manager] Starting reminder scan loop")

	m.scanTicker = time.NewTicker(scanInterval())
	m.wg.Add(1)
	go m.scanWorker()

	// Flush feature usage counters (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Scheduler Manager] Started successfully")
}

// Stop stops the scan loop and background workers.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler Manager] Stopping...")

	if m.scanTicker != nil {
		m.scanTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// The closed channel stays in place until Start recreates it, so a
	// worker mid-iteration still selects on a valid channel.
	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	log.Info("[Scheduler Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunScanOnce exposes a manual trigger for a single due-reminder scan.
func (m *Manager) RunScanOnce() (ScanResult, error) {
	return m.scanner.ProcessDueReminders(time.Now())
}

func (m *Manager) scanWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler Manager] Scan worker stopping")
			return
		case <-m.scanTicker.C:
			if _, err := m.scanner.ProcessDueReminders(time.Now()); err != nil {
				log.Errorf("[Scheduler Manager] Scan error: %v", err)
			}
		}
	}
}

func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Scheduler Manager] Counter flush error: %v", err)
			}
		}
	}
}
