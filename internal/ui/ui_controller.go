package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// TemplateLibrary lists, saves and deletes workout templates
type TemplateLibrary interface {
	All(ctx context.Context) ([]templates.Template, error)
	Save(ctx context.Context, name string, def timer.WorkoutDefinition) (templates.Template, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStore is a live settings source the UI can change
type SettingsStore interface {
	timer.SettingsSource
	Update(fn func(*timer.Settings)) timer.Settings
	Persist() error
	ListenToSettings(fn func(timer.Settings)) func()
}

// UIControllerArgs holds the arguments for creating a new UIController
type UIControllerArgs struct {
	Model     *UIModel
	Interval  *timer.IntervalEngine
	Stopwatch *timer.Stopwatch
	Countdown *timer.SingleCountdown
	Library   TemplateLibrary
	Settings  SettingsStore
	WakeGuard *timer.WakeGuard // optional
	Logger    *log.Logger
}

// UIController handles UI events and coordinates the timers with the UIModel
type UIController struct {
	model      *UIModel
	interval   *timer.IntervalEngine
	stopwatch  *timer.Stopwatch
	countdown  *timer.SingleCountdown
	library    TemplateLibrary
	settings   SettingsStore
	wakeGuard  *timer.WakeGuard
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	unregister func()
}

// NewUIController creates a new UIController. It restores the last edited workout,
// loads the template list and mirrors settings changes into the model.
func NewUIController(args UIControllerArgs) *UIController {
	if args.Model == nil {
		panic("UIController: model cannot be nil")
	}
	if args.Interval == nil || args.Stopwatch == nil || args.Countdown == nil {
		panic("UIController: timers cannot be nil")
	}
	if args.Library == nil {
		panic("UIController: library cannot be nil")
	}
	if args.Settings == nil {
		panic("UIController: settings cannot be nil")
	}
	if args.Logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:     args.Model,
		interval:  args.Interval,
		stopwatch: args.Stopwatch,
		countdown: args.Countdown,
		library:   args.Library,
		settings:  args.Settings,
		wakeGuard: args.WakeGuard,
		logger:    args.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	c.model.SetSettings(c.settings.Settings())
	c.unregister = c.settings.ListenToSettings(c.model.SetSettings)

	if def, ok := c.model.RestoredWorkout(); ok {
		c.logger.Printf("UIController: Restoring last workout (%s)", def.Description())
		c.interval.SetDefinition(def)
	}
	c.RefreshTemplates()
	return c
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("UIController: Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// OnVisibilityChanged forwards visibility to the wake guard
func (c *UIController) OnVisibilityChanged(visible bool) {
	if c.wakeGuard != nil {
		c.wakeGuard.VisibilityChanged(visible)
	}
}

// --- Interval Timer ---

// ToggleWorkout starts an idle or finished workout, otherwise pauses or resumes it
func (c *UIController) ToggleWorkout() {
	switch c.interval.Mode() {
	case timer.ModeIdle, timer.ModeComplete:
		if err := c.interval.Start(); errors.Is(err, timer.ErrEmptyWorkout) {
			c.model.SetNotice(NoticeEmptyWorkout)
		}
	default:
		c.interval.TogglePlayPause()
	}
}

// SkipSegment ends the current segment early
func (c *UIController) SkipSegment() {
	c.interval.Skip()
}

// ResetWorkout abandons the run and returns to the editor
func (c *UIController) ResetWorkout() {
	c.interval.Reset()
}

// AddSegment appends a default segment
func (c *UIController) AddSegment() {
	c.editWorkout(func(d timer.WorkoutDefinition) timer.WorkoutDefinition {
		return d.WithSegment(timer.DefaultSegment())
	})
}

// RemoveSegment deletes the segment at index
func (c *UIController) RemoveSegment(index int) {
	c.editWorkout(func(d timer.WorkoutDefinition) timer.WorkoutDefinition {
		return d.WithoutSegment(index)
	})
}

// UpdateSegment replaces the segment at index with the edited fields
func (c *UIController) UpdateSegment(index int, name string, minutes, seconds int, segType timer.SegmentType) {
	c.editWorkout(func(d timer.WorkoutDefinition) timer.WorkoutDefinition {
		return d.WithReplacedSegment(index, timer.EditSegment(name, minutes, seconds, segType))
	})
}

// IncreaseRounds adds one round
func (c *UIController) IncreaseRounds() {
	c.editWorkout(func(d timer.WorkoutDefinition) timer.WorkoutDefinition {
		return d.WithRounds(d.Rounds + 1)
	})
}

// DecreaseRounds removes one round, keeping at least one
func (c *UIController) DecreaseRounds() {
	c.editWorkout(func(d timer.WorkoutDefinition) timer.WorkoutDefinition {
		return d.WithRounds(d.Rounds - 1)
	})
}

func (c *UIController) editWorkout(edit func(timer.WorkoutDefinition) timer.WorkoutDefinition) bool {
	if !c.interval.SetDefinition(edit(c.interval.Definition())) {
		c.model.SetNotice(NoticeBusyWorkout)
		return false
	}
	c.model.RememberWorkout(c.interval.Definition())
	return true
}

// --- Templates ---

// RefreshTemplates reloads the template list into the model
func (c *UIController) RefreshTemplates() {
	list, err := c.library.All(c.ctx)
	if err != nil {
		c.logger.Printf("UIController: Loading templates failed: %v", err)
		c.model.SetNotice("Could not load templates")
		return
	}
	c.model.SetTemplates(list)
}

// LoadTemplate loads the template at index into the timer and shows it
func (c *UIController) LoadTemplate(index int) {
	list := c.model.GetTemplates()
	if index < 0 || index >= len(list) {
		c.logger.Printf("UIController: Invalid template index: %d", index)
		return
	}
	tpl := list[index]
	if !c.interval.SetDefinition(tpl.Definition) {
		c.model.SetNotice(NoticeBusyWorkout)
		return
	}
	c.model.RememberWorkout(c.interval.Definition())
	c.logger.Printf("UIController: Template loaded: %s", tpl.Name)
	c.OnModeChange(UIModeTimer)
	c.model.SetNotice(fmt.Sprintf("Loaded %s", tpl.Name))
}

// SaveTemplate stores the current workout under name
func (c *UIController) SaveTemplate(name string) {
	tpl, err := c.library.Save(c.ctx, name, c.interval.Definition())
	switch {
	case errors.Is(err, templates.ErrTemplateName):
		c.model.SetNotice(NoticeTemplateName)
		return
	case errors.Is(err, timer.ErrEmptyWorkout):
		c.model.SetNotice(NoticeEmptyWorkout)
		return
	case err != nil:
		c.logger.Printf("UIController: Saving template failed: %v", err)
		c.model.SetNotice("Could not save template")
		return
	}
	c.RefreshTemplates()
	c.model.SetNotice(fmt.Sprintf("Saved %s", tpl.Name))
}

// DeleteTemplate removes the user template at index
func (c *UIController) DeleteTemplate(index int) {
	list := c.model.GetTemplates()
	if index < 0 || index >= len(list) {
		c.logger.Printf("UIController: Invalid template index: %d", index)
		return
	}
	tpl := list[index]
	err := c.library.Delete(c.ctx, tpl.ID)
	switch {
	case errors.Is(err, templates.ErrBuiltInTemplate):
		c.model.SetNotice(NoticeBuiltInTemplate)
		return
	case err != nil:
		c.logger.Printf("UIController: Deleting template failed: %v", err)
		c.model.SetNotice("Could not delete template")
		return
	}
	c.RefreshTemplates()
	c.model.SetNotice(fmt.Sprintf("Deleted %s", tpl.Name))
}

// --- Stopwatch ---

func (c *UIController) ToggleStopwatch() {
	c.stopwatch.Toggle()
}

func (c *UIController) LapStopwatch() {
	c.stopwatch.Lap()
}

func (c *UIController) ResetStopwatch() {
	c.stopwatch.Reset()
}

// --- Countdown ---

func (c *UIController) ToggleCountdown() {
	c.countdown.Toggle()
}

func (c *UIController) ResetCountdown() {
	c.countdown.Reset()
}

// SelectCountdownPreset loads timer.CountdownPresets[index]
func (c *UIController) SelectCountdownPreset(index int) {
	if index < 0 || index >= len(timer.CountdownPresets) {
		c.logger.Printf("UIController: Invalid preset index: %d", index)
		return
	}
	if !c.countdown.SetPreset(int(timer.CountdownPresets[index] / time.Second)) {
		c.model.SetNotice("Stop the countdown first")
	}
}

// SetCountdownDuration loads a custom countdown length
func (c *UIController) SetCountdownDuration(minutes, seconds int) {
	if !c.countdown.SetDuration(minutes, seconds) {
		c.model.SetNotice("Stop the countdown first")
	}
}

// --- Settings ---

// CycleSoundMode switches beep, bell and silent in turn
func (c *UIController) CycleSoundMode() {
	s := c.settings.Update(func(s *timer.Settings) {
		switch s.SoundMode {
		case timer.SoundBeep:
			s.SoundMode = timer.SoundBell
		case timer.SoundBell:
			s.SoundMode = timer.SoundSilent
		default:
			s.SoundMode = timer.SoundBeep
		}
	})
	c.model.SetNotice(fmt.Sprintf("Sound: %s", s.SoundMode))
}

// ToggleDisplayMode flips between counting down and counting up
func (c *UIController) ToggleDisplayMode() {
	s := c.settings.Update(func(s *timer.Settings) {
		if s.DisplayMode == timer.DisplayCountup {
			s.DisplayMode = timer.DisplayCountdown
		} else {
			s.DisplayMode = timer.DisplayCountup
		}
	})
	c.model.SetNotice(fmt.Sprintf("Display: %s", s.DisplayMode))
}

func (c *UIController) ToggleSpeech() {
	s := c.settings.Update(func(s *timer.Settings) { s.SpeechEnabled = !s.SpeechEnabled })
	c.model.SetNotice(fmt.Sprintf("Speech: %s", onOff(s.SpeechEnabled)))
}

func (c *UIController) ToggleHaptics() {
	s := c.settings.Update(func(s *timer.Settings) { s.HapticsEnabled = !s.HapticsEnabled })
	c.model.SetNotice(fmt.Sprintf("Haptics: %s", onOff(s.HapticsEnabled)))
}

// TogglePreparePausePolicy flips what resuming a paused prepare countdown does
func (c *UIController) TogglePreparePausePolicy() {
	s := c.settings.Update(func(s *timer.Settings) {
		if s.PreparePausePolicy == timer.PrepareResume {
			s.PreparePausePolicy = timer.PrepareCancel
		} else {
			s.PreparePausePolicy = timer.PrepareResume
		}
	})
	c.model.SetNotice(fmt.Sprintf("Paused prepare: %s", s.PreparePausePolicy))
}

// SaveSettings writes the current settings to the config file
func (c *UIController) SaveSettings() {
	if err := c.settings.Persist(); err != nil {
		c.logger.Printf("UIController: Saving settings failed: %v", err)
		c.model.SetNotice("Could not save settings")
		return
	}
	c.model.SetNotice(NoticeSettingsSaved)
}

// Shutdown stops every timer and releases listeners
func (c *UIController) Shutdown() {
	c.cancel()
	if c.unregister != nil {
		c.unregister()
	}
	c.interval.Reset()
	c.stopwatch.Reset()
	c.countdown.Reset()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
