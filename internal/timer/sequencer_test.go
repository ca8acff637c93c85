package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_CountsDownThenFinishes(t *testing.T) {
	sched := NewManualScheduler(epoch)

	var counts []int
	done := 0
	q := StartSequencer(sched, 3, time.Second, func(k int) { counts = append(counts, k) }, func() { done++ })

	assert.Equal(t, []int{3}, counts)
	assert.Equal(t, 3, q.Remaining())
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(2 * time.Second)
	assert.Equal(t, []int{3, 2, 1}, counts)
	assert.Equal(t, 0, done)

	sched.Advance(time.Second)
	assert.Equal(t, 1, done)
	assert.Equal(t, 0, q.Remaining())
	assert.True(t, q.Finished())
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(10 * time.Second)
	assert.Equal(t, []int{3, 2, 1}, counts)
	assert.Equal(t, 1, done)
}

func TestSequencer_CancelStopsCallbacks(t *testing.T) {
	sched := NewManualScheduler(epoch)

	var counts []int
	done := false
	q := StartSequencer(sched, 5, 900*time.Millisecond, func(k int) { counts = append(counts, k) }, func() { done = true })

	sched.Advance(900 * time.Millisecond)
	q.Cancel()
	q.Cancel()
	sched.Advance(time.Minute)

	assert.Equal(t, []int{5, 4}, counts)
	assert.False(t, done)
	assert.Equal(t, 4, q.Remaining())
	assert.Equal(t, 0, sched.Pending())
}

func TestSequencer_CancelFromCountCallback(t *testing.T) {
	sched := NewManualScheduler(epoch)

	var q *Sequencer
	var counts []int
	q = StartSequencer(sched, 3, time.Second, func(k int) {
		counts = append(counts, k)
		if k == 2 {
			q.Cancel()
		}
	}, func() { t.Fatal("done must not run after cancel") })

	sched.Advance(5 * time.Second)
	assert.Equal(t, []int{3, 2}, counts)
}

func TestSequencer_ZeroFinishesImmediately(t *testing.T) {
	sched := NewManualScheduler(epoch)

	counted := false
	done := 0
	q := StartSequencer(sched, 0, time.Second, func(int) { counted = true }, func() { done++ })

	assert.False(t, counted)
	assert.Equal(t, 1, done)
	require.True(t, q.Finished())
	assert.Equal(t, 0, sched.Pending())
	q.Cancel()
}

func TestManualScheduler_FiresInTimeOrder(t *testing.T) {
	sched := NewManualScheduler(epoch)

	var fired []string
	cancelFast := sched.Every(300*time.Millisecond, func(now time.Time) {
		fired = append(fired, "fast@"+now.Sub(epoch).String())
	})
	sched.Every(500*time.Millisecond, func(now time.Time) {
		fired = append(fired, "slow@"+now.Sub(epoch).String())
	})

	sched.Advance(time.Second)
	assert.Equal(t, []string{"fast@300ms", "slow@500ms", "fast@600ms", "fast@900ms", "slow@1s"}, fired)
	assert.Equal(t, epoch.Add(time.Second), sched.Now())

	cancelFast()
	fired = nil
	sched.Advance(time.Second)
	assert.Equal(t, []string{"slow@1.5s", "slow@2s"}, fired)
}

func TestManualScheduler_RegisterDuringFire(t *testing.T) {
	sched := NewManualScheduler(epoch)

	var fired []time.Duration
	var cancelOuter func()
	cancelOuter = sched.Every(time.Second, func(now time.Time) {
		cancelOuter()
		sched.Every(100*time.Millisecond, func(now time.Time) {
			fired = append(fired, now.Sub(epoch))
		})
	})

	sched.Advance(1300 * time.Millisecond)
	assert.Equal(t, []time.Duration{1100 * time.Millisecond, 1200 * time.Millisecond, 1300 * time.Millisecond}, fired)
	assert.Equal(t, 1, sched.Pending())
}

func TestTickerScheduler_CancelStopsTicks(t *testing.T) {
	sched := NewTickerScheduler(newTestLogger(t))

	ticks := make(chan time.Time, 100)
	cancel := sched.Every(5*time.Millisecond, func(now time.Time) {
		select {
		case ticks <- now:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for tick")
	}
	cancel()
	cancel()

	// Drain anything that raced the cancel, then expect silence
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, len(ticks))
}
