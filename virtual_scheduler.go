package cache

import (
	"sync"
	"time"
)

// VirtualScheduler is a Scheduler driven by a manually advanced clock.
// Actions only run inside Advance, on the caller's goroutine.
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	queue *taskQueue
}

func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{
		now:   time.Unix(0, 0),
		queue: newTaskQueue(),
	}
}

func (s *VirtualScheduler) ScheduleAfter(d time.Duration, action func()) TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.push(s.now.Add(d), action)
}

func (s *VirtualScheduler) Cancel(h TimerHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.remove(h)
}

// Advance moves the clock forward by d and runs every action that becomes due,
// including actions scheduled by other actions within the window.
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t, ok := s.queue.popDue(target)
		if !ok {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.due
		s.mu.Unlock()

		t.action()
	}
}

// Now returns the current virtual time.
func (s *VirtualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of actions that have not run yet.
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}
