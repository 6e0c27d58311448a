package cache

import (
	"sync"
	"time"
)

// TimerHandle identifies an action scheduled on a Scheduler.
type TimerHandle uint64

// Scheduler runs actions after a delay. Implementations deliver actions one at
// a time, never concurrently with each other.
type Scheduler interface {
	// Schedules action to run once after d.
	ScheduleAfter(d time.Duration, action func()) TimerHandle

	// Cancels a pending action without running it. Returns false when the
	// action already ran, was already cancelled or is unknown.
	Cancel(h TimerHandle) bool
}

// StoppableScheduler is a Scheduler that owns resources which must be released.
type StoppableScheduler interface {
	Scheduler

	// Stops delivering actions. Actions still pending never run.
	Stop()
}

type loopScheduler struct {
	mu    sync.Mutex
	queue *taskQueue
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewScheduler returns a Scheduler that delivers actions on a single
// background goroutine, in order of their due time.
func NewScheduler() StoppableScheduler {
	s := &loopScheduler{
		queue: newTaskQueue(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *loopScheduler) ScheduleAfter(d time.Duration, action func()) TimerHandle {
	s.mu.Lock()
	h := s.queue.push(time.Now().Add(d), action)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return h
}

func (s *loopScheduler) Cancel(h TimerHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.remove(h)
}

func (s *loopScheduler) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *loopScheduler) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if !s.fireDue() {
			return
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		var tick <-chan time.Time
		if wait, ok := s.untilNext(); ok {
			timer.Reset(wait)
			tick = timer.C
		}

		select {
		case <-tick:
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

// fireDue runs every due action, returns false once the scheduler is stopped.
func (s *loopScheduler) fireDue() bool {
	for {
		select {
		case <-s.done:
			return false
		default:
		}

		s.mu.Lock()
		t, ok := s.queue.popDue(time.Now())
		s.mu.Unlock()

		if !ok {
			return true
		}
		t.action()
	}
}

func (s *loopScheduler) untilNext() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due, ok := s.queue.next()
	if !ok {
		return 0, false
	}
	return time.Until(due), true
}
