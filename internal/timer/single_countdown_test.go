package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCountdown(t *testing.T) (*SingleCountdown, *ManualScheduler, *recorder) {
	logger := newTestLogger(t)
	sched := NewManualScheduler(epoch)
	rec := &recorder{}
	cd := NewSingleCountdown(SingleCountdownArgs{
		Scheduler: sched,
		Outputs:   NewOutputs(logger, rec, rec, rec, rec),
		Logger:    logger,
	})
	return cd, sched, rec
}

func TestSingleCountdown_DefaultsToOneMinute(t *testing.T) {
	cd, _, _ := newTestCountdown(t)

	snap := cd.Snapshot()
	assert.Equal(t, time.Minute, snap.Duration)
	assert.Equal(t, time.Minute, snap.Remaining)
	assert.Equal(t, "1:00", snap.Display())
}

func TestSingleCountdown_WarnsOnceThenEnds(t *testing.T) {
	cd, sched, rec := newTestCountdown(t)
	require.True(t, cd.SetDuration(0, 10))

	cd.Start()
	sched.Advance(7*time.Second - DefaultTickInterval)
	assert.Equal(t, 0, rec.count(CueWarn))

	sched.Advance(DefaultTickInterval)
	assert.Equal(t, 1, rec.count(CueWarn))
	assert.True(t, cd.Snapshot().WarnFired)
	assert.Equal(t, HapticWarn, rec.lastPulse())

	sched.Advance(2 * time.Second)
	assert.Equal(t, 1, rec.count(CueWarn))
	assert.Equal(t, "0:01", cd.Snapshot().Display())

	sched.Advance(time.Second)
	snap := cd.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, time.Duration(0), snap.Remaining)
	assert.Equal(t, 1, rec.count(CueEnd))
	assert.Equal(t, 1, rec.count(CueWarn))
	assert.Equal(t, []string{AnnounceTimeUp}, rec.spoken())
	assert.Equal(t, HapticCountdownEnd, rec.lastPulse())
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, 1.0, snap.Progress())
}

func TestSingleCountdown_PauseInsideWarnWindowDoesNotRefire(t *testing.T) {
	cd, sched, rec := newTestCountdown(t)
	cd.SetPreset(5)

	cd.Start()
	sched.Advance(2500 * time.Millisecond)
	assert.Equal(t, 1, rec.count(CueWarn))

	cd.Pause()
	sched.Advance(time.Minute)
	assert.Equal(t, 2500*time.Millisecond, cd.Snapshot().Remaining)

	cd.Start()
	sched.Advance(time.Second)
	assert.Equal(t, 1, rec.count(CueWarn))
}

func TestSingleCountdown_RestartReloadsDuration(t *testing.T) {
	cd, sched, rec := newTestCountdown(t)
	cd.SetPreset(4)

	cd.Start()
	sched.Advance(4 * time.Second)
	require.False(t, cd.Active())

	cd.Start()
	snap := cd.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, 4*time.Second, snap.Remaining)
	assert.False(t, snap.WarnFired)

	sched.Advance(4 * time.Second)
	assert.Equal(t, 2, rec.count(CueWarn))
	assert.Equal(t, 2, rec.count(CueEnd))
}

func TestSingleCountdown_ChangesRejectedWhileRunning(t *testing.T) {
	cd, sched, _ := newTestCountdown(t)

	cd.Toggle()
	assert.False(t, cd.SetPreset(30))
	assert.False(t, cd.SetDuration(2, 0))
	assert.Equal(t, time.Minute, cd.Snapshot().Duration)

	sched.Advance(10 * time.Second)
	cd.Toggle()
	assert.True(t, cd.SetDuration(2, -5))
	snap := cd.Snapshot()
	assert.Equal(t, 2*time.Minute, snap.Duration)
	assert.Equal(t, 2*time.Minute, snap.Remaining)
}

func TestSingleCountdown_ZeroDurationDoesNotStart(t *testing.T) {
	cd, sched, _ := newTestCountdown(t)
	cd.SetDuration(-1, 0)

	cd.Start()
	assert.False(t, cd.Active())
	assert.Equal(t, 0, sched.Pending())
}

func TestSingleCountdown_Reset(t *testing.T) {
	cd, sched, _ := newTestCountdown(t)
	cd.SetPreset(10)

	cd.Start()
	sched.Advance(8 * time.Second)
	cd.Reset()

	snap := cd.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 10*time.Second, snap.Remaining)
	assert.False(t, snap.WarnFired)
	assert.Equal(t, 0, sched.Pending())
}

func TestCountdownPresets(t *testing.T) {
	assert.Equal(t, []time.Duration{
		30 * time.Second, time.Minute, 2 * time.Minute, 5 * time.Minute, 10 * time.Minute,
	}, CountdownPresets)
}
