package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// fakeView records what BaseUIView asks it to render
type fakeView struct {
	mu        sync.Mutex
	mode      UIMode
	notice    string
	interval  timer.IntervalSnapshot
	stopwatch timer.StopwatchSnapshot
	countdown timer.CountdownSnapshot
	templates []templates.Template
	settings  timer.Settings
	cues      []string
	logLines  []string
	draws     int
	stopped   bool
	ran       bool
}

func (v *fakeView) Initialize(*UIController)            {}
func (v *fakeView) SetupKeyboardHandlers(*UIController) {}

func (v *fakeView) Run() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ran = true
	return nil
}

func (v *fakeView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *fakeView) Draw() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws++
	return nil
}

func (v *fakeView) SetMode(mode UIMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *fakeView) GetCurrentMode() UIMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *fakeView) ShowNotice(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notice = text
}

func (v *fakeView) FlashCue(label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cues = append(v.cues, label)
}

func (v *fakeView) GetLogViewHeight() int { return 3 }

func (v *fakeView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = nil
}

func (v *fakeView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = append(v.logLines, line)
	return nil
}

func (v *fakeView) UpdateInterval(s timer.IntervalSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.interval = s
}

func (v *fakeView) UpdateStopwatch(s timer.StopwatchSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopwatch = s
}

func (v *fakeView) UpdateCountdown(s timer.CountdownSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.countdown = s
}

func (v *fakeView) SetTemplateList(list []templates.Template) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.templates = list
}

func (v *fakeView) UpdateSettings(s timer.Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = s
}

// read runs fn with the view locked
func (v *fakeView) read(fn func(v *fakeView) bool) func() bool {
	return func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return fn(v)
	}
}

func newTestBaseView(t *testing.T, h *harness) (*BaseUIView, *fakeView) {
	t.Helper()
	view := &fakeView{mode: UIMode(-1)}
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      h.model,
		UIController: h.ctrl,
		Logger:       newTestLogger(),
	})
	t.Cleanup(base.Shutdown)
	return base, view
}

func TestBaseUIView_InitialRender(t *testing.T) {
	h := newHarness(t)
	_, view := newTestBaseView(t, h)

	view.mu.Lock()
	defer view.mu.Unlock()
	assert.Equal(t, UIModeTimer, view.mode)
	assert.Equal(t, timer.DefaultDefinition(), view.interval.Definition)
	assert.Equal(t, timer.DefaultCountdownDuration, view.countdown.Duration)
	assert.Len(t, view.templates, len(templates.BuiltInTemplates()))
	assert.Equal(t, h.settings.Settings(), view.settings)
}

func TestBaseUIView_FollowsModel(t *testing.T) {
	h := newHarness(t)
	_, view := newTestBaseView(t, h)
	wait := func(cond func(v *fakeView) bool) {
		t.Helper()
		require.Eventually(t, view.read(cond), time.Second, 5*time.Millisecond)
	}

	h.ctrl.OnModeChange(UIModeStopwatch)
	wait(func(v *fakeView) bool { return v.mode == UIModeStopwatch })

	h.model.SetNotice("hi")
	wait(func(v *fakeView) bool { return v.notice == "hi" })

	h.ctrl.ToggleWorkout()
	wait(func(v *fakeView) bool { return v.interval.Mode == timer.ModeRunning })

	h.ctrl.ToggleStopwatch()
	wait(func(v *fakeView) bool { return v.stopwatch.Running })

	h.ctrl.SelectCountdownPreset(2)
	wait(func(v *fakeView) bool { return v.countdown.Duration == 2*time.Minute })

	h.ctrl.CycleSoundMode()
	wait(func(v *fakeView) bool { return v.settings.SoundMode == timer.SoundBell })

	h.ctrl.SaveTemplate("Mine")
	wait(func(v *fakeView) bool { return len(v.templates) == len(templates.BuiltInTemplates())+1 })

	h.model.CueFired("start: Work")
	wait(func(v *fakeView) bool { return len(v.cues) == 1 && v.cues[0] == "start: Work" })

	h.logChan <- "one\n"
	h.logChan <- "two\n"
	h.logChan <- "three\n"
	h.logChan <- "four\n"
	wait(func(v *fakeView) bool {
		return assert.ObjectsAreEqual([]string{"two\n", "three\n", "four\n"}, v.logLines)
	})

	view.mu.Lock()
	assert.Positive(t, view.draws)
	view.mu.Unlock()
}

func TestBaseUIView_CloseStopsView(t *testing.T) {
	h := newHarness(t)
	_, view := newTestBaseView(t, h)

	h.ctrl.OnEscapeKey()

	require.Eventually(t, view.read(func(v *fakeView) bool { return v.stopped }), time.Second, 5*time.Millisecond)
}

func TestBaseUIView_RunMarksVisibility(t *testing.T) {
	h := newHarness(t)
	base, view := newTestBaseView(t, h)
	h.ctrl.ToggleStopwatch()
	before := h.wakeLock.Requests()

	require.NoError(t, base.Run())

	assert.True(t, view.ran)
	assert.Equal(t, before+1, h.wakeLock.Requests())
}
