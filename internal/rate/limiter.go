package rate

import (
	"context"
	"sync"

	xrate "golang.org/x/time/rate"
)

// Config defines the request budget for one upstream host.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Manager hands out one token-bucket limiter per key (typically the upstream host).
// The government open-data endpoints throttle aggressively, so every outbound
// call waits on its host's bucket first.
type Manager struct {
	mu       sync.Mutex
	limiters map[string]*xrate.Limiter
	defaults Config
}

// NewManager returns a Manager whose limiters all use defaults.
// A non-positive rate disables limiting.
func NewManager(defaults Config) *Manager {
	if defaults.Burst <= 0 {
		defaults.Burst = 1
	}
	return &Manager{
		limiters: make(map[string]*xrate.Limiter),
		defaults: defaults,
	}
}

// Limiter returns the limiter for key, creating it on first use.
func (m *Manager) Limiter(key string) *xrate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lim, ok := m.limiters[key]; ok {
		return lim
	}
	limit := xrate.Inf
	if m.defaults.RequestsPerSecond > 0 {
		limit = xrate.Limit(m.defaults.RequestsPerSecond)
	}
	lim := xrate.NewLimiter(limit, m.defaults.Burst)
	m.limiters[key] = lim
	return lim
}

// Allow reports whether a request for key may proceed right now, consuming a token if so.
func (m *Manager) Allow(key string) bool {
	return m.Limiter(key).Allow()
}

// Wait blocks until key has a token or ctx is done.
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.Limiter(key).Wait(ctx)
}
