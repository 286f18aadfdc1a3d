// Package health tracks the reachability of the services the dashboard depends on.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ncecere/usage_dashboard/internal/config"
)

// Check probes one dependency and returns nil when it is reachable.
type Check func(ctx context.Context) error

// Status is the outcome of the most recent probe of a dependency.
type Status struct {
	Healthy   bool          `json:"healthy"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Monitor periodically runs registered checks and keeps the latest status of each.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	checks   map[string]Check
	statuses map[string]Status

	startOnce sync.Once
}

// NewMonitor constructs a monitor using the health configuration.
func NewMonitor(cfg config.HealthConfig, logger *slog.Logger) *Monitor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		interval: cfg.CheckInterval,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		checks:   make(map[string]Check),
		statuses: make(map[string]Status),
	}
}

// Register adds or replaces a named check.
func (m *Monitor) Register(name string, check Check) {
	if m == nil || check == nil {
		return
	}
	m.mu.Lock()
	m.checks[name] = check
	m.mu.Unlock()
}

// Start begins the monitoring loop until ctx is canceled. It is a no-op when
// the interval is zero or the loop is already running.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil || m.interval <= 0 {
		return
	}
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow runs every registered check concurrently and records the results.
func (m *Monitor) CheckNow(ctx context.Context) {
	if m == nil {
		return
	}
	m.mu.RLock()
	checks := make(map[string]Check, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := m.now()
			err := check(timeoutCtx)
			latency := m.now().Sub(start)
			status := Status{
				Healthy:   err == nil,
				Latency:   latency,
				LatencyMS: latency.Milliseconds(),
				CheckedAt: m.now().UTC(),
			}
			if err != nil {
				status.Error = err.Error()
			}
			m.update(name, status)
		}(name, check)
	}
	wg.Wait()
}

func (m *Monitor) update(name string, status Status) {
	m.mu.Lock()
	prev, seen := m.statuses[name]
	m.statuses[name] = status
	m.mu.Unlock()

	switch {
	case !status.Healthy && (!seen || prev.Healthy):
		m.logger.Warn("dependency unhealthy", "check", name, "error", status.Error)
	case status.Healthy && seen && !prev.Healthy:
		m.logger.Info("dependency recovered", "check", name)
	}
}

// Snapshot returns the latest status per check. Checks that have not run yet are absent.
func (m *Monitor) Snapshot() map[string]Status {
	out := make(map[string]Status)
	if m == nil {
		return out
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, status := range m.statuses {
		out[name] = status
	}
	return out
}

// Unhealthy lists the checks whose latest probe failed, sorted by name.
func (m *Monitor) Unhealthy() []string {
	var names []string
	for name, status := range m.Snapshot() {
		if !status.Healthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
