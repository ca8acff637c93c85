package ui

import (
	"github.com/lowaak/intervals/internal/templates"
	"github.com/lowaak/intervals/internal/timer"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	SetMode(mode UIMode)
	GetCurrentMode() UIMode

	// ShowNotice shows a short message, or hides it when text is empty
	ShowNotice(text string)

	// FlashCue briefly highlights a fired cue
	FlashCue(label string)

	// --- Log View (shared across modes) ---

	GetLogViewHeight() int
	ClearLogView()
	WriteLogLine(line string) error

	// --- Timers ---

	UpdateInterval(snapshot timer.IntervalSnapshot)
	UpdateStopwatch(snapshot timer.StopwatchSnapshot)
	UpdateCountdown(snapshot timer.CountdownSnapshot)

	// --- Templates and settings ---

	SetTemplateList(list []templates.Template)
	UpdateSettings(settings timer.Settings)
}
