package sched

import (
	"testing"
	"time"
)

func TestManual_FireAllRunsInOrder(t *testing.T) {
	m := NewManual()

	var got []int
	m.AfterFunc(time.Second, func() { got = append(got, 1) })
	m.AfterFunc(time.Second, func() { got = append(got, 2) })

	if m.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", m.Pending())
	}
	m.FireAll()

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected drained queue, got %d", m.Pending())
	}
}

func TestManual_CancelPreventsRun(t *testing.T) {
	m := NewManual()

	ran := false
	cancel := m.AfterFunc(time.Second, func() { ran = true })
	cancel()

	m.FireAll()
	if ran {
		t.Fatalf("cancelled callback ran")
	}
}

func TestManual_CallbacksMayReschedule(t *testing.T) {
	m := NewManual()

	count := 0
	m.AfterFunc(time.Second, func() {
		count++
		m.AfterFunc(time.Second, func() { count++ })
	})

	m.FireAll()
	if count != 2 {
		t.Fatalf("expected chained callback to run, got count=%d", count)
	}
}
