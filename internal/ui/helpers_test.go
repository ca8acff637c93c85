package ui

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lowaak/intervals/internal/cues"
	"github.com/lowaak/intervals/internal/events"
	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// Background goroutines may log after a test returns, so tests log nowhere
func newTestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeSettings is an in-memory SettingsStore
type fakeSettings struct {
	mu         sync.Mutex
	s          timer.Settings
	persisted  int
	persistErr error
	changed    *events.CallbackEvent[timer.Settings]
}

func newFakeSettings(fn func(*timer.Settings)) *fakeSettings {
	s := timer.DefaultSettings()
	if fn != nil {
		fn(&s)
	}
	return &fakeSettings{s: s, changed: events.NewCallbackEvent[timer.Settings](false)}
}

func (f *fakeSettings) Settings() timer.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func (f *fakeSettings) Update(fn func(*timer.Settings)) timer.Settings {
	f.mu.Lock()
	fn(&f.s)
	f.s = f.s.Normalize()
	s := f.s
	f.mu.Unlock()

	f.changed.Notify(s)
	return s
}

func (f *fakeSettings) Persist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted++
	return nil
}

func (f *fakeSettings) ListenToSettings(fn func(timer.Settings)) func() {
	return f.changed.Listen(fn)
}

// fakeNotices replaces time.AfterFunc for notice expiry
type fakeNotices struct {
	mu      sync.Mutex
	pending []func()
	stopped int
}

func (n *fakeNotices) after(_ time.Duration, fn func()) func() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, fn)
	return func() bool {
		n.mu.Lock()
		n.stopped++
		n.mu.Unlock()
		return true
	}
}

// fire runs the i-th scheduled expiry
func (n *fakeNotices) fire(i int) {
	n.mu.Lock()
	fn := n.pending[i]
	n.mu.Unlock()
	fn()
}

// harness wires real engines on a manual clock to a model and controller
type harness struct {
	scheduler *timer.ManualScheduler
	settings  *fakeSettings
	wakeLock  *cues.LogWakeLock
	interval  *timer.IntervalEngine
	stopwatch *timer.Stopwatch
	countdown *timer.SingleCountdown
	model     *UIModel
	ctrl      *UIController
	notices   *fakeNotices
	logChan   chan string
	statePath string
}

type harnessOption func(*harness)

func withStatePath(path string) harnessOption {
	return func(h *harness) { h.statePath = path }
}

func withSettings(fn func(*timer.Settings)) harnessOption {
	return func(h *harness) { h.settings = newFakeSettings(fn) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	logger := newTestLogger()
	h := &harness{
		scheduler: timer.NewManualScheduler(epoch),
		settings:  newFakeSettings(func(s *timer.Settings) { s.PrepareSeconds = 0 }),
		wakeLock:  cues.NewLogWakeLock(logger),
		notices:   &fakeNotices{},
		logChan:   make(chan string, 16),
	}
	for _, opt := range opts {
		opt(h)
	}

	out := timer.NewOutputs(logger, nil, nil, nil, h.wakeLock)
	h.interval = timer.NewIntervalEngine(timer.IntervalEngineArgs{
		Scheduler:       h.scheduler,
		Settings:        h.settings,
		Outputs:         out,
		Logger:          logger,
		TransitionCount: timer.NoTransition,
	})
	h.stopwatch = timer.NewStopwatch(timer.StopwatchArgs{Scheduler: h.scheduler, Outputs: out, Logger: logger})
	h.countdown = timer.NewSingleCountdown(timer.SingleCountdownArgs{Scheduler: h.scheduler, Outputs: out, Logger: logger})

	h.model = NewUIModel(UIModelArgs{
		Logger:    logger,
		UILogChan: h.logChan,
		Interval:  h.interval,
		Stopwatch: h.stopwatch,
		Countdown: h.countdown,
		StatePath: h.statePath,
	})
	h.model.noticeAfter = h.notices.after
	t.Cleanup(h.model.Shutdown)

	store := templates.NewYAMLStore(filepath.Join(t.TempDir(), templates.DefaultTemplatesFile), logger)
	h.ctrl = NewUIController(UIControllerArgs{
		Model:     h.model,
		Interval:  h.interval,
		Stopwatch: h.stopwatch,
		Countdown: h.countdown,
		Library:   templates.NewLibrary(store, logger),
		Settings:  h.settings,
		WakeGuard: timer.NewWakeGuard(out, logger, h.interval, h.stopwatch, h.countdown),
		Logger:    logger,
	})
	t.Cleanup(h.ctrl.Shutdown)
	return h
}

func (h *harness) notice() string {
	return h.model.GetUIState().Notice
}

var errDiskFull = errors.New("disk full")

// requireTemplateNamed returns the index of the template called name
func requireTemplateNamed(t *testing.T, list []templates.Template, name string) int {
	t.Helper()
	for i, tpl := range list {
		if tpl.Name == name {
			return i
		}
	}
	require.Failf(t, "template not found", "no template named %q", name)
	return -1
}
