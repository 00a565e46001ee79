package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingTarget struct {
	refreshes int32
	prunes    int32
}

func (c *countingTarget) RefreshAll() int {
	atomic.AddInt32(&c.refreshes, 1)
	return 0
}

func (c *countingTarget) Prune() int {
	atomic.AddInt32(&c.prunes, 1)
	return 0
}

func TestStartRunsPruneAndDefersRefresh(t *testing.T) {
	target := &countingTarget{}
	s := New(target, 15*time.Minute, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&target.prunes) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if atomic.LoadInt32(&target.prunes) == 0 {
		t.Fatalf("expected prune job to run immediately")
	}
	if atomic.LoadInt32(&target.refreshes) != 0 {
		t.Fatalf("refresh should wait for the first interval")
	}
}
