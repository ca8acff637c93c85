package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickState struct {
	Mode    string
	Elapsed time.Duration
}

func receiveWithin[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Errorf("unexpected value received: %v", v)
	default:
	}
}

func TestChannelEvent_DeliversToEveryListener(t *testing.T) {
	event := NewChannelEvent[tickState](false)

	running := make(chan tickState, 4)
	paused := make(chan tickState, 4)
	unregisterRunning := event.Listen(running)
	unregisterPaused := event.Listen(paused)
	require.Equal(t, 2, event.ListenerCount())

	event.Notify(tickState{Mode: "running", Elapsed: time.Second})

	assert.Equal(t, "running", receiveWithin(t, running).Mode)
	assert.Equal(t, time.Second, receiveWithin(t, paused).Elapsed)

	unregisterRunning()
	unregisterRunning()
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify(tickState{Mode: "paused"})
	assertEmpty(t, running)
	assert.Equal(t, "paused", receiveWithin(t, paused).Mode)

	unregisterPaused()
	assert.Equal(t, 0, event.ListenerCount())
}

func TestChannelEvent_ReplaysLastValueToLateListener(t *testing.T) {
	event := NewChannelEvent[tickState](true)

	early := make(chan tickState, 4)
	defer event.Listen(early)()
	assertEmpty(t, early)

	_, ok := event.Last()
	assert.False(t, ok)

	event.Notify(tickState{Mode: "preparing"})
	event.Notify(tickState{Mode: "running"})
	assert.Equal(t, "preparing", receiveWithin(t, early).Mode)
	assert.Equal(t, "running", receiveWithin(t, early).Mode)

	late := make(chan tickState, 4)
	defer event.Listen(late)()
	assert.Equal(t, "running", receiveWithin(t, late).Mode)
	assertEmpty(t, late)

	last, ok := event.Last()
	require.True(t, ok)
	assert.Equal(t, "running", last.Mode)
}

func TestChannelEvent_NoReplayWhenDisabled(t *testing.T) {
	event := NewChannelEvent[int](false)
	event.Notify(7)

	ch := make(chan int, 1)
	defer event.Listen(ch)()
	assertEmpty(t, ch)

	_, ok := event.Last()
	assert.False(t, ok)
}

func TestChannelEvent_FullListenerIsSkipped(t *testing.T) {
	event := NewChannelEvent[int](true)

	ch := make(chan int, 1)
	defer event.Listen(ch)()

	event.Notify(1)
	event.Notify(2)
	event.Notify(3)

	// The stale value stays queued; the newest is still readable through Last.
	assert.Equal(t, 1, receiveWithin(t, ch))
	assertEmpty(t, ch)
	last, ok := event.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last)
}

func TestChannelEvent_ListenNilPanics(t *testing.T) {
	event := NewChannelEvent[int](false)
	assert.Panics(t, func() { event.Listen(nil) })
}

func TestChannelEvent_ConcurrentNotify(t *testing.T) {
	event := NewChannelEvent[int](false)

	channels := make([]chan int, 5)
	for i := range channels {
		channels[i] = make(chan int, 50)
		defer event.Listen(channels[i])()
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			event.Notify(v)
		}(i)
	}
	wg.Wait()

	for _, ch := range channels {
		assert.Len(t, ch, 20)
	}
}
