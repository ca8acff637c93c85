package events

import (
	"sync"
)

// ChannelEvent provides pub/sub behavior using channels.
// Engines publish state snapshots through it; views listen with small buffered channels.
type ChannelEvent[T any] struct {
	mu                    sync.RWMutex
	channels              map[uint64]chan<- T
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             *T
	hasNotified           bool
}

// NewChannelEvent creates a new ChannelEvent instance
// sendLastEventOnListen: if true, the last notified value is sent to every new listener
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:              make(map[uint64]chan<- T),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers a channel to receive values when Notify is invoked.
// Returns a deregistration function that is safe to call more than once.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	last, shouldSend := e.lastLocked()
	e.mu.Unlock()

	// Sent outside the lock; a full channel already holds a pending wake-up
	if shouldSend {
		select {
		case ch <- last:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to all registered channels without blocking.
// A listener whose channel is full is skipped: it still has an undelivered value,
// so readers that need the latest state should re-read it when they wake up.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		if e.lastEvent == nil {
			e.lastEvent = new(T)
		}
		*e.lastEvent = value
		e.hasNotified = true
	}
	channelsCopy := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		channelsCopy = append(channelsCopy, ch)
	}
	e.mu.Unlock()

	for _, ch := range channelsCopy {
		select {
		case ch <- value:
		default:
		}
	}
}

// Last returns the most recently notified value when the event remembers it.
func (e *ChannelEvent[T]) Last() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastLocked()
}

// lastLocked must be called with mu held.
func (e *ChannelEvent[T]) lastLocked() (T, bool) {
	var zero T
	if !e.sendLastEventOnListen || !e.hasNotified || e.lastEvent == nil {
		return zero, false
	}
	return *e.lastEvent, true
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
