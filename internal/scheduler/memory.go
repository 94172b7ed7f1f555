package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryHoldScheduler is a process-local HoldScheduler. Pending releases are
// lost on restart and are then picked up by the expired hold sweep.
type MemoryHoldScheduler struct {
	mu        sync.Mutex
	deadlines map[int]time.Time
}

func NewMemoryHoldScheduler() *MemoryHoldScheduler {
	return &MemoryHoldScheduler{
		deadlines: make(map[int]time.Time),
	}
}

func (s *MemoryHoldScheduler) Schedule(_ context.Context, screeningSeatID int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadlines[screeningSeatID] = at
	return nil
}

func (s *MemoryHoldScheduler) Cancel(_ context.Context, screeningSeatIDs ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range screeningSeatIDs {
		delete(s.deadlines, id)
	}

	return nil
}

func (s *MemoryHoldScheduler) PopDue(_ context.Context, now time.Time) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []int
	for id, at := range s.deadlines {
		if !at.After(now) {
			due = append(due, id)
			delete(s.deadlines, id)
		}
	}

	sort.Ints(due)
	return due, nil
}

// Pending returns the number of scheduled releases.
func (s *MemoryHoldScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.deadlines)
}
