package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsRepeatedly(t *testing.T) {
	s := New()
	defer s.Stop()

	var count int32
	cancel := s.Every(10*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	time.Sleep(55 * time.Millisecond)
	cancel()
	got := atomic.LoadInt32(&count)
	if got < 3 {
		t.Fatalf("expected at least 3 runs in 55ms at 10ms period, got %d", got)
	}
}

func TestStopPreventsFurtherRuns(t *testing.T) {
	s := New()
	var count int32
	s.Every(5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	after := atomic.LoadInt32(&count)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&count) != after {
		t.Fatalf("expected no further runs after Stop, before=%d after=%d", after, atomic.LoadInt32(&count))
	}
}
