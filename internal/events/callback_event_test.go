package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackEvent_CallsListenersInRegistrationOrder(t *testing.T) {
	event := NewCallbackEvent[string](false)

	var order []string
	unregisterA := event.Listen(func(cue string) { order = append(order, "a:"+cue) })
	unregisterB := event.Listen(func(cue string) { order = append(order, "b:"+cue) })
	unregisterC := event.Listen(func(cue string) { order = append(order, "c:"+cue) })

	event.Notify("warn")
	event.Notify("end")
	assert.Equal(t, []string{"a:warn", "b:warn", "c:warn", "a:end", "b:end", "c:end"}, order)

	unregisterB()
	order = nil
	event.Notify("start")
	assert.Equal(t, []string{"a:start", "c:start"}, order)

	unregisterA()
	unregisterC()
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_ReplayLastOnListen(t *testing.T) {
	event := NewCallbackEvent[int](true)

	var first []int
	defer event.Listen(func(v int) { first = append(first, v) })()
	assert.Empty(t, first)

	event.Notify(3)
	event.Notify(2)
	assert.Equal(t, []int{3, 2}, first)

	var late []int
	defer event.Listen(func(v int) { late = append(late, v) })()
	assert.Equal(t, []int{2}, late)

	last, ok := event.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last)
}

func TestCallbackEvent_NoReplayWhenDisabled(t *testing.T) {
	event := NewCallbackEvent[int](false)
	event.Notify(1)

	called := false
	defer event.Listen(func(int) { called = true })()
	assert.False(t, called)

	_, ok := event.Last()
	assert.False(t, ok)
}

func TestCallbackEvent_ListenerMayUnregisterItself(t *testing.T) {
	event := NewCallbackEvent[int](false)

	calls := 0
	var unregister func()
	unregister = event.Listen(func(int) {
		calls++
		unregister()
	})

	event.Notify(1)
	event.Notify(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_ListenerMayNotifyAgain(t *testing.T) {
	event := NewCallbackEvent[int](true)

	var seen []int
	defer event.Listen(func(v int) {
		seen = append(seen, v)
		if v > 0 {
			event.Notify(v - 1)
		}
	})()

	event.Notify(2)
	assert.Equal(t, []int{2, 1, 0}, seen)
}

func TestCallbackEvent_ListenNilPanics(t *testing.T) {
	event := NewCallbackEvent[int](false)
	assert.Panics(t, func() { event.Listen(nil) })
}

func TestCallbackEvent_ConcurrentNotify(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var mu sync.Mutex
	total := 0
	defer event.Listen(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			event.Notify(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 55, total)
}
