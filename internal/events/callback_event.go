package events

import (
	"sort"
	"sync"
)

// CallbackEvent provides synchronous pub/sub with type-safe callbacks.
// Listeners run on the notifying goroutine, in registration order.
type CallbackEvent[T any] struct {
	mu                    sync.RWMutex
	listeners             map[uint64]func(T)
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             *T
	hasNotified           bool
}

// NewCallbackEvent creates a new CallbackEvent instance
// sendLastEventOnListen: if true, new listeners are called immediately with the last notified value
func NewCallbackEvent[T any](sendLastEventOnListen bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners:             make(map[uint64]func(T)),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers a callback to be called when Notify is invoked.
// Returns a deregistration function that is safe to call more than once.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	var last T
	shouldSend := e.sendLastEventOnListen && e.hasNotified && e.lastEvent != nil
	if shouldSend {
		last = *e.lastEvent
	}
	e.mu.Unlock()

	// Outside the lock so the callback may call back into the event
	if shouldSend {
		callback(last)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify calls all registered callbacks with value.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		if e.lastEvent == nil {
			e.lastEvent = new(T)
		}
		*e.lastEvent = value
		e.hasNotified = true
	}
	ids := make([]uint64, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	callbacks := make([]func(T), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, e.listeners[id])
	}
	e.mu.Unlock()

	for _, callback := range callbacks {
		callback(value)
	}
}

// Last returns the most recently notified value when the event remembers it.
func (e *CallbackEvent[T]) Last() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var zero T
	if !e.sendLastEventOnListen || !e.hasNotified || e.lastEvent == nil {
		return zero, false
	}
	return *e.lastEvent, true
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
