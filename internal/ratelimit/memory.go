// internal/ratelimit/memory.go
//
// In-process fixed-window limiter.
//
// Workflow
//   •  CheckAndConsume runs under one mutex, so concurrent requests for the
//      same key never lose an increment.
//   •  Windows live in a bounded LRU (MaxKeys).  Under a flood of distinct
//      keys the least recently seen window is dropped first.
//   •  Run sweeps expired windows every SweepInterval until ctx ends.
//
//------------------------------------------------------------------------------

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/cache"
)

// Static defaults.
const (
	MaxKeys       = 50_000
	SweepInterval = time.Minute
)

type window struct {
	start time.Time
	count int
}

// MemoryStore is a Limiter backed by process memory.
type MemoryStore struct {
	policy Policy
	now    func() time.Time

	mu   sync.Mutex
	wins *cache.LRU[string, *window]
}

// NewMemoryStore returns a store enforcing p.
func NewMemoryStore(p Policy) (*MemoryStore, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{
		policy: p,
		now:    time.Now,
		wins:   cache.New[string, *window](MaxKeys),
	}, nil
}

// CheckAndConsume implements Limiter.  It never fails.
func (m *MemoryStore) CheckAndConsume(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wins.Get(key)
	if !ok || now.Sub(w.start) >= m.policy.Window {
		m.wins.Add(key, &window{start: now, count: 1})
		return true, nil
	}
	if w.count >= m.policy.Limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Sweep drops expired windows and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wins.Prune(func(_ string, w *window) bool {
		return now.Sub(w.start) >= m.policy.Window
	})
}

// Len reports the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wins.Len()
}

// Run sweeps on a ticker until ctx is cancelled.  Always returns nil so it can
// be supervised by an errgroup.
func (m *MemoryStore) Run(ctx context.Context) error {
	t := time.NewTicker(SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}
