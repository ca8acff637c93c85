package timer

import (
	"sync"
	"time"
)

// Sequencer counts down from N to 0 at a fixed interval.
// It backs both the prepare countdown and the 3-2-1 transition between segments.
type Sequencer struct {
	mu        sync.Mutex
	remaining int
	finished  bool
	stop      func()
	onCount   func(int)
	onDone    func()
}

// StartSequencer calls onCount(n) immediately, then onCount(n-1) .. onCount(1) once per
// interval, and finally onDone in place of onCount(0). With n <= 0 only onDone is called.
// Callbacks run without the sequencer's lock held and may call Cancel.
func StartSequencer(scheduler Scheduler, n int, interval time.Duration, onCount func(int), onDone func()) *Sequencer {
	q := &Sequencer{
		remaining: n,
		onCount:   onCount,
		onDone:    onDone,
	}

	if n <= 0 {
		q.remaining = 0
		q.finished = true
		if onDone != nil {
			onDone()
		}
		return q
	}

	if onCount != nil {
		onCount(n)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return q
	}
	q.stop = scheduler.Every(interval, q.tick)
	return q
}

func (q *Sequencer) tick(time.Time) {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		return
	}
	q.remaining--
	k := q.remaining
	var stop func()
	if k <= 0 {
		q.remaining = 0
		q.finished = true
		stop = q.stop
	}
	q.mu.Unlock()

	if k > 0 {
		if q.onCount != nil {
			q.onCount(k)
		}
		return
	}

	if stop != nil {
		stop()
	}
	if q.onDone != nil {
		q.onDone()
	}
}

// Cancel stops the countdown. Ticks that start afterwards run no callback; a
// callback already running on another goroutine is not waited for, so owners
// that cancel from elsewhere must also guard their callbacks (the engines use
// a generation number). Safe to call more than once, and on a finished sequencer.
func (q *Sequencer) Cancel() {
	if q == nil {
		return
	}
	q.mu.Lock()
	q.finished = true
	stop := q.stop
	q.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Remaining returns the current count
func (q *Sequencer) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining
}

// Finished reports whether the countdown completed or was cancelled
func (q *Sequencer) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}
