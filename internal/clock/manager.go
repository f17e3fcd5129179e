// Package clock drives game countdowns: one cancelable, fixed-interval
// callback per game id.
package clock

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs once per interval. Returning false stops the timer.
type TickFunc func() bool

type timer struct {
	gen    uint64
	cancel context.CancelFunc
}

// Manager holds at most one live timer per id.
type Manager struct {
	mu       sync.Mutex
	interval time.Duration
	gen      uint64
	timers   map[string]*timer
}

func NewManager(interval time.Duration) *Manager {
	if interval <= 0 {
		interval = time.Second
	}
	return &Manager{
		interval: interval,
		timers:   make(map[string]*timer),
	}
}

// Arm installs the timer for id, canceling any timer already armed for it
// before the new one starts.
func (m *Manager) Arm(id string, fn TickFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if old, ok := m.timers[id]; ok {
		old.cancel()
	}
	m.gen++
	t := &timer{gen: m.gen, cancel: cancel}
	m.timers[id] = t
	m.mu.Unlock()

	go m.run(ctx, id, t.gen, fn)
}

// Disarm cancels the timer for id. It reports whether one was armed.
func (m *Manager) Disarm(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timers[id]
	if !ok {
		return false
	}
	t.cancel()
	delete(m.timers, id)
	return true
}

// Armed reports whether a timer is live for id.
func (m *Manager) Armed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[id]
	return ok
}

// Stop cancels every timer.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.cancel()
		delete(m.timers, id)
	}
}

func (m *Manager) run(ctx context.Context, id string, gen uint64, fn TickFunc) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A fire racing a Disarm or a re-Arm is dropped.
			if !m.current(id, gen) {
				return
			}
			if !fn() {
				m.release(id, gen)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) current(id string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[id]
	return ok && t.gen == gen
}

// release removes the timer for id if it is still the one identified by gen.
func (m *Manager) release(id string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok && t.gen == gen {
		t.cancel()
		delete(m.timers, id)
	}
}
