package timer

import (
	"sync"
	"time"
)

// ManualScheduler is a deterministic Scheduler whose clock only moves on Advance.
// Periodic callbacks run synchronously on the caller of Advance, in time order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	tasks  map[uint64]*manualTask
}

type manualTask struct {
	id       uint64
	interval time.Duration
	next     time.Time
	fn       func(now time.Time)
}

// NewManualScheduler creates a scheduler whose clock starts at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		now:   start,
		tasks: make(map[uint64]*manualTask),
	}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) Every(interval time.Duration, fn func(now time.Time)) func() {
	if interval <= 0 {
		panic("ManualScheduler: interval must be positive")
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.tasks[id] = &manualTask{
		id:       id,
		interval: interval,
		next:     s.now.Add(interval),
		fn:       fn,
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every callback that falls due on the way.
// Callbacks may register or cancel tasks; new tasks fire within the same Advance if due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due *manualTask
		for _, t := range s.tasks {
			if t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.id < due.id) {
				due = t
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.next
		due.next = due.next.Add(due.interval)
		fn, now := due.fn, s.now
		s.mu.Unlock()

		fn(now)
	}
}

// AdvanceSteps calls Advance(step) n times
func (s *ManualScheduler) AdvanceSteps(step time.Duration, n int) {
	for i := 0; i < n; i++ {
		s.Advance(step)
	}
}

// Pending returns the number of live periodic registrations
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
