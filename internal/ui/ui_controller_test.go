package ui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

func TestUIController_ToggleWorkout(t *testing.T) {
	h := newHarness(t)

	h.ctrl.ToggleWorkout()
	assert.Equal(t, timer.ModeRunning, h.interval.Mode())

	h.scheduler.Advance(2 * time.Second)
	h.ctrl.ToggleWorkout()
	assert.Equal(t, timer.ModePaused, h.interval.Mode())
	elapsed := h.interval.Snapshot().Position.SegmentElapsed

	h.scheduler.Advance(5 * time.Second)
	h.ctrl.ToggleWorkout()
	assert.Equal(t, timer.ModeRunning, h.interval.Mode())
	assert.Equal(t, elapsed, h.interval.Snapshot().Position.SegmentElapsed)

	h.ctrl.SkipSegment()
	assert.Equal(t, "Rest", h.interval.Snapshot().Current.Name)

	h.ctrl.ResetWorkout()
	assert.Equal(t, timer.ModeIdle, h.interval.Mode())
}

func TestUIController_ToggleWorkoutPrepares(t *testing.T) {
	h := newHarness(t, withSettings(func(s *timer.Settings) { s.PrepareSeconds = 3 }))

	h.ctrl.ToggleWorkout()
	snap := h.interval.Snapshot()
	assert.Equal(t, timer.ModePreparing, snap.Mode)
	assert.Equal(t, 3, snap.Countdown)
}

func TestUIController_RestartsAfterComplete(t *testing.T) {
	h := newHarness(t)
	h.ctrl.DecreaseRounds()
	h.ctrl.DecreaseRounds()

	h.ctrl.ToggleWorkout()
	h.scheduler.AdvanceSteps(100*time.Millisecond, 460)
	require.Equal(t, timer.ModeComplete, h.interval.Mode())

	h.ctrl.ToggleWorkout()
	assert.Equal(t, timer.ModeRunning, h.interval.Mode())
	assert.Equal(t, "Work", h.interval.Snapshot().Current.Name)
}

func TestUIController_EmptyWorkoutShowsNotice(t *testing.T) {
	h := newHarness(t)
	h.ctrl.RemoveSegment(0)
	h.ctrl.RemoveSegment(0)
	require.Empty(t, h.interval.Definition().Segments)

	h.ctrl.ToggleWorkout()

	assert.Equal(t, timer.ModeIdle, h.interval.Mode())
	assert.Equal(t, NoticeEmptyWorkout, h.notice())
}

func TestUIController_EditWorkout(t *testing.T) {
	h := newHarness(t)

	h.ctrl.AddSegment()
	def := h.interval.Definition()
	require.Len(t, def.Segments, 3)
	assert.Equal(t, timer.DefaultSegment(), def.Segments[2])

	h.ctrl.UpdateSegment(0, "  Sprint ", 1, 5, timer.SegmentWork)
	assert.Equal(t, timer.NewSegment("Sprint", 65, timer.SegmentWork), h.interval.Definition().Segments[0])

	h.ctrl.UpdateSegment(1, "Walk", -3, 0, timer.SegmentRest)
	assert.Equal(t, time.Second, h.interval.Definition().Segments[1].Duration)

	h.ctrl.IncreaseRounds()
	assert.Equal(t, 4, h.interval.Definition().Rounds)
	for i := 0; i < 6; i++ {
		h.ctrl.DecreaseRounds()
	}
	assert.Equal(t, 1, h.interval.Definition().Rounds)

	// Out of range indexes leave the workout alone
	h.ctrl.RemoveSegment(10)
	assert.Len(t, h.interval.Definition().Segments, 3)

	restored, ok := h.model.RestoredWorkout()
	require.True(t, ok)
	assert.Equal(t, h.interval.Definition(), restored)
}

func TestUIController_EditWhileRunningIsRejected(t *testing.T) {
	h := newHarness(t)
	h.ctrl.ToggleWorkout()

	h.ctrl.AddSegment()
	h.ctrl.IncreaseRounds()

	assert.Equal(t, timer.DefaultDefinition(), h.interval.Definition())
	assert.Equal(t, NoticeBusyWorkout, h.notice())
	assert.Equal(t, timer.ModeRunning, h.interval.Mode())
}

func TestUIController_RestoresLastWorkout(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultStateFile)

	first := newHarness(t, withStatePath(path))
	first.ctrl.UpdateSegment(0, "Row", 0, 40, timer.SegmentWork)
	first.ctrl.IncreaseRounds()
	want := first.interval.Definition()

	second := newHarness(t, withStatePath(path))
	assert.Equal(t, want, second.interval.Definition())
}

func TestUIController_Templates(t *testing.T) {
	h := newHarness(t)

	list := h.model.GetTemplates()
	require.Len(t, list, len(templates.BuiltInTemplates()))

	t.Run("save", func(t *testing.T) {
		h.ctrl.UpdateSegment(0, "Hill", 1, 0, timer.SegmentWork)
		h.ctrl.SaveTemplate("Mine")

		list := h.model.GetTemplates()
		require.Len(t, list, len(templates.BuiltInTemplates())+1)
		mine := list[requireTemplateNamed(t, list, "Mine")]
		assert.False(t, mine.BuiltIn)
		assert.Equal(t, "Hill → Rest", mine.Description)
		assert.Equal(t, h.interval.Definition(), mine.Definition)
		assert.Equal(t, "Saved Mine", h.notice())
	})

	t.Run("blank name", func(t *testing.T) {
		h.ctrl.SaveTemplate("   ")
		assert.Equal(t, NoticeTemplateName, h.notice())
	})

	t.Run("built-in cannot be deleted", func(t *testing.T) {
		h.ctrl.DeleteTemplate(0)
		assert.Equal(t, NoticeBuiltInTemplate, h.notice())
		assert.Len(t, h.model.GetTemplates(), len(templates.BuiltInTemplates())+1)
	})

	t.Run("load switches to the timer", func(t *testing.T) {
		h.ctrl.OnModeChange(UIModeTemplates)
		list := h.model.GetTemplates()

		h.ctrl.LoadTemplate(0)

		assert.Equal(t, list[0].Definition, h.interval.Definition())
		assert.Equal(t, UIModeTimer, h.model.GetUIState().Mode)
		assert.Equal(t, "Loaded "+list[0].Name, h.notice())
	})

	t.Run("load while running", func(t *testing.T) {
		h.ctrl.ToggleWorkout()
		before := h.interval.Definition()

		h.ctrl.LoadTemplate(1)

		assert.Equal(t, before, h.interval.Definition())
		assert.Equal(t, NoticeBusyWorkout, h.notice())
		h.ctrl.ResetWorkout()
	})

	t.Run("delete", func(t *testing.T) {
		list := h.model.GetTemplates()
		h.ctrl.DeleteTemplate(requireTemplateNamed(t, list, "Mine"))

		assert.Len(t, h.model.GetTemplates(), len(templates.BuiltInTemplates()))
		assert.Equal(t, "Deleted Mine", h.notice())
	})

	t.Run("bad index", func(t *testing.T) {
		before := h.interval.Definition()
		h.ctrl.LoadTemplate(-1)
		h.ctrl.LoadTemplate(99)
		h.ctrl.DeleteTemplate(99)
		assert.Equal(t, before, h.interval.Definition())
	})
}

func TestUIController_Settings(t *testing.T) {
	h := newHarness(t)

	h.ctrl.CycleSoundMode()
	assert.Equal(t, timer.SoundBell, h.model.GetSettings().SoundMode)
	assert.Equal(t, "Sound: bell", h.notice())
	h.ctrl.CycleSoundMode()
	assert.Equal(t, timer.SoundSilent, h.model.GetSettings().SoundMode)
	h.ctrl.CycleSoundMode()
	assert.Equal(t, timer.SoundBeep, h.model.GetSettings().SoundMode)

	h.ctrl.ToggleDisplayMode()
	assert.Equal(t, timer.DisplayCountup, h.settings.Settings().DisplayMode)
	assert.Equal(t, timer.DisplayCountup, h.interval.Snapshot().DisplayMode)

	h.ctrl.ToggleSpeech()
	assert.False(t, h.model.GetSettings().SpeechEnabled)
	assert.Equal(t, "Speech: off", h.notice())

	h.ctrl.ToggleHaptics()
	assert.False(t, h.model.GetSettings().HapticsEnabled)

	h.ctrl.TogglePreparePausePolicy()
	assert.Equal(t, timer.PrepareResume, h.model.GetSettings().PreparePausePolicy)

	h.ctrl.SaveSettings()
	assert.Equal(t, 1, h.settings.persisted)
	assert.Equal(t, NoticeSettingsSaved, h.notice())

	h.settings.persistErr = errDiskFull
	h.ctrl.SaveSettings()
	assert.Equal(t, "Could not save settings", h.notice())
}

func TestUIController_Stopwatch(t *testing.T) {
	h := newHarness(t)

	h.ctrl.ToggleStopwatch()
	h.scheduler.Advance(1500 * time.Millisecond)
	h.ctrl.LapStopwatch()
	h.scheduler.Advance(time.Second)
	h.ctrl.ToggleStopwatch()

	snap := h.model.GetStopwatch()
	assert.False(t, snap.Running)
	assert.Equal(t, 2500*time.Millisecond, snap.Elapsed)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, snap.Laps)

	h.ctrl.ResetStopwatch()
	assert.Zero(t, h.model.GetStopwatch().Elapsed)
	assert.Empty(t, h.model.GetStopwatch().Laps)
}

func TestUIController_Countdown(t *testing.T) {
	h := newHarness(t)

	h.ctrl.SelectCountdownPreset(0)
	assert.Equal(t, 30*time.Second, h.model.GetCountdown().Duration)

	h.ctrl.ToggleCountdown()
	require.True(t, h.model.GetCountdown().Running)

	h.ctrl.SelectCountdownPreset(1)
	assert.Equal(t, 30*time.Second, h.model.GetCountdown().Duration)
	assert.Equal(t, "Stop the countdown first", h.notice())

	h.ctrl.SetCountdownDuration(0, 45)
	assert.Equal(t, 30*time.Second, h.model.GetCountdown().Duration)

	h.ctrl.ResetCountdown()
	h.ctrl.SetCountdownDuration(1, 15)
	snap := h.model.GetCountdown()
	assert.False(t, snap.Running)
	assert.Equal(t, 75*time.Second, snap.Duration)
	assert.Equal(t, 75*time.Second, snap.Remaining)

	h.ctrl.SelectCountdownPreset(len(timer.CountdownPresets))
	assert.Equal(t, 75*time.Second, h.model.GetCountdown().Duration)
}

func TestUIController_WakeLockOnlyWhenShownAgain(t *testing.T) {
	h := newHarness(t)
	h.ctrl.OnVisibilityChanged(true)
	h.ctrl.ToggleStopwatch()
	before := h.wakeLock.Requests()

	// Switching pages is not a visibility change
	h.ctrl.OnModeChange(UIModeCountdown)
	h.ctrl.OnModeChange(UIModeStopwatch)
	assert.Equal(t, UIModeStopwatch, h.model.GetUIState().Mode)
	assert.Equal(t, before, h.wakeLock.Requests())

	h.ctrl.OnVisibilityChanged(false)
	assert.Equal(t, before, h.wakeLock.Requests())

	h.ctrl.OnVisibilityChanged(true)
	assert.Equal(t, before+1, h.wakeLock.Requests())
}

func TestUIController_ShutdownStopsTimers(t *testing.T) {
	h := newHarness(t)
	h.ctrl.ToggleWorkout()
	h.ctrl.ToggleStopwatch()
	h.ctrl.ToggleCountdown()

	h.ctrl.Shutdown()

	assert.False(t, h.interval.Active())
	assert.False(t, h.stopwatch.Active())
	assert.False(t, h.countdown.Active())
	assert.Zero(t, h.scheduler.Pending())
}

func TestUIController_EscapeRequestsClose(t *testing.T) {
	h := newHarness(t)
	ch := make(chan struct{}, 1)
	unregister := h.model.ListenToCloseApplication(ch)
	defer unregister()

	h.ctrl.OnEscapeKey()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close was not requested")
	}
}
