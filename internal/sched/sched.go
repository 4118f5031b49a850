// Package sched decouples delayed work from real timers so the services
// that simulate latency (bot replies, distribution finalization) can be
// driven synchronously in tests.
package sched

import (
	"sync"
	"time"
)

// CancelFunc stops a pending callback. Calling it after the callback ran
// is a no-op.
type CancelFunc func()

type Scheduler interface {
	// AfterFunc runs f once after d elapses.
	AfterFunc(d time.Duration, f func()) CancelFunc
}

// Real schedules on the runtime timer heap.
type Real struct{}

func NewReal() *Real { return &Real{} }

func (*Real) AfterFunc(d time.Duration, f func()) CancelFunc {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Manual queues callbacks and runs them only when the test asks. Durations
// are recorded but never waited on.
type Manual struct {
	mu      sync.Mutex
	pending []*manualEntry
}

type manualEntry struct {
	d         time.Duration
	f         func()
	cancelled bool
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) AfterFunc(d time.Duration, f func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &manualEntry{d: d, f: f}
	m.pending = append(m.pending, e)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		e.cancelled = true
	}
}

// Pending reports how many callbacks are queued and not cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.pending {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// FireAll runs every queued callback in scheduling order, including any
// scheduled by the callbacks themselves, until the queue drains.
func (m *Manual) FireAll() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		e := m.pending[0]
		m.pending = m.pending[1:]
		run := !e.cancelled
		m.mu.Unlock()

		if run {
			e.f()
		}
	}
}
