package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/events"
	"github.com/lowaak/intervals/internal/go_func_utils"
	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode   UIMode
	Notice string // short-lived message, empty when none
}

// UIModelArgs holds the arguments for creating a new UIModel
type UIModelArgs struct {
	Logger    *log.Logger
	UILogChan <-chan string
	Interval  *timer.IntervalEngine
	Stopwatch *timer.Stopwatch
	Countdown *timer.SingleCountdown
	StatePath string // empty keeps UI state in memory only
}

type UIModel struct {
	interval  *timer.IntervalEngine
	stopwatch *timer.Stopwatch
	countdown *timer.SingleCountdown

	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	templatesEvent        *events.ChannelEvent[[]templates.Template]
	templates             []templates.Template
	settingsEvent         *events.ChannelEvent[timer.Settings]
	settings              timer.Settings
	cueEvent              *events.ChannelEvent[string]
	persistence           *uiModelPersistence
	noticeSeq             uint64
	noticeAfter           func(time.Duration, func()) func() bool
	stopNotice            func() bool
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

func NewUIModel(args UIModelArgs) *UIModel {
	if args.Logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if args.UILogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	if args.Interval == nil || args.Stopwatch == nil || args.Countdown == nil {
		panic("UIModel: timers cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		interval:              args.Interval,
		stopwatch:             args.Stopwatch,
		countdown:             args.Countdown,
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeTimer},
		templatesEvent:        events.NewChannelEvent[[]templates.Template](true),
		settingsEvent:         events.NewChannelEvent[timer.Settings](true),
		settings:              timer.DefaultSettings(),
		cueEvent:              events.NewChannelEvent[string](false),
		persistence:           newUIModelPersistence(args.StatePath, args.Logger),
		noticeAfter: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
		logLines: make([]string, 0, maxLogLines),
		ctx:      ctx,
		cancel:   cancel,
		logger:   args.Logger,
	}
	if mode, ok := model.persistence.getLastMode(); ok {
		model.uiState.Mode = mode
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, args.UILogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.mu.Lock()
	if m.stopNotice != nil {
		m.stopNotice()
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.persistence.setLastMode(mode)
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// SetNotice shows text for NoticeDuration. A newer notice replaces an older one.
func (m *UIModel) SetNotice(text string) {
	m.mu.Lock()
	m.noticeSeq++
	seq := m.noticeSeq
	m.uiState.Notice = text
	state := m.uiState
	if m.stopNotice != nil {
		m.stopNotice()
	}
	m.stopNotice = m.noticeAfter(NoticeDuration, func() { m.clearNotice(seq) })
	m.mu.Unlock()

	m.logger.Printf("UIModel: Notice %q", text)
	m.uiStateEvent.Notify(state)
}

func (m *UIModel) clearNotice(seq uint64) {
	m.mu.Lock()
	if seq != m.noticeSeq || m.uiState.Notice == "" {
		m.mu.Unlock()
		return
	}
	m.uiState.Notice = ""
	m.stopNotice = nil
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToTemplates registers a channel to receive template list changes
func (m *UIModel) ListenToTemplates(ch chan<- []templates.Template) func() {
	return m.templatesEvent.Listen(ch)
}

// GetTemplates returns a copy of the template list
func (m *UIModel) GetTemplates() []templates.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]templates.Template(nil), m.templates...)
}

// SetTemplates replaces the template list and notifies listeners
func (m *UIModel) SetTemplates(list []templates.Template) {
	m.mu.Lock()
	m.templates = append([]templates.Template(nil), list...)
	listCopy := append([]templates.Template(nil), m.templates...)
	m.mu.Unlock()

	m.templatesEvent.Notify(listCopy)
}

// ListenToSettings registers a channel to receive settings changes
func (m *UIModel) ListenToSettings(ch chan<- timer.Settings) func() {
	return m.settingsEvent.Listen(ch)
}

// GetSettings returns the settings last shown
func (m *UIModel) GetSettings() timer.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings records new settings and notifies listeners
func (m *UIModel) SetSettings(s timer.Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()

	m.settingsEvent.Notify(s)
}

// ListenToCues registers a channel to receive a label for every cue fired
func (m *UIModel) ListenToCues(ch chan<- string) func() {
	return m.cueEvent.Listen(ch)
}

// CueFired publishes a cue label for the view to flash
func (m *UIModel) CueFired(label string) {
	m.cueEvent.Notify(label)
}

// RestoredWorkout returns the workout saved by a previous run, if any
func (m *UIModel) RestoredWorkout() (timer.WorkoutDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistence.getWorkout()
}

// RememberWorkout stores def so the next run starts with it
func (m *UIModel) RememberWorkout(def timer.WorkoutDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistence.setWorkout(def)
}

// --- Timers ---

// ListenToInterval registers a channel to receive interval engine snapshots
func (m *UIModel) ListenToInterval(ch chan<- timer.IntervalSnapshot) func() {
	return m.interval.ListenToSnapshots(ch)
}

// GetInterval returns the current interval engine snapshot
func (m *UIModel) GetInterval() timer.IntervalSnapshot {
	return m.interval.Snapshot()
}

// ListenToStopwatch registers a channel to receive stopwatch snapshots
func (m *UIModel) ListenToStopwatch(ch chan<- timer.StopwatchSnapshot) func() {
	return m.stopwatch.ListenToSnapshots(ch)
}

// GetStopwatch returns the current stopwatch snapshot
func (m *UIModel) GetStopwatch() timer.StopwatchSnapshot {
	return m.stopwatch.Snapshot()
}

// ListenToCountdown registers a channel to receive countdown snapshots
func (m *UIModel) ListenToCountdown(ch chan<- timer.CountdownSnapshot) func() {
	return m.countdown.ListenToSnapshots(ch)
}

// GetCountdown returns the current countdown snapshot
func (m *UIModel) GetCountdown() timer.CountdownSnapshot {
	return m.countdown.Snapshot()
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
