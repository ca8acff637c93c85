package cues

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/lowaak/intervals/internal/events"
	"github.com/lowaak/intervals/internal/timer"
)

// LogHaptics stands in for a vibration motor: pulses are logged and published
// so the UI can flash. Nothing happens while haptics are disabled.
type LogHaptics struct {
	settings timer.SettingsSource
	logger   *log.Logger
	pulses   *events.CallbackEvent[[]time.Duration]
}

func NewLogHaptics(settings timer.SettingsSource, logger *log.Logger) *LogHaptics {
	if logger == nil {
		panic("LogHaptics: logger cannot be nil")
	}
	if settings == nil {
		panic("LogHaptics: settings cannot be nil")
	}
	return &LogHaptics{
		settings: settings,
		logger:   logger,
		pulses:   events.NewCallbackEvent[[]time.Duration](false),
	}
}

// ListenToPulses registers fn for every pulse played
func (h *LogHaptics) ListenToPulses(fn func([]time.Duration)) func() {
	return h.pulses.Listen(fn)
}

func (h *LogHaptics) Pulse(pattern []time.Duration) {
	if len(pattern) == 0 || !h.settings.Settings().HapticsEnabled {
		return
	}
	h.logger.Printf("LogHaptics: pulse %v", pattern)
	h.pulses.Notify(append([]time.Duration(nil), pattern...))
}

// LogWakeLock records wake lock requests. A terminal has no screen lock to hold.
type LogWakeLock struct {
	logger   *log.Logger
	requests atomic.Int64
}

func NewLogWakeLock(logger *log.Logger) *LogWakeLock {
	if logger == nil {
		panic("LogWakeLock: logger cannot be nil")
	}
	return &LogWakeLock{logger: logger}
}

func (w *LogWakeLock) Request() error {
	n := w.requests.Add(1)
	w.logger.Printf("LogWakeLock: request #%d", n)
	return nil
}

// Requests returns how many times the lock was requested
func (w *LogWakeLock) Requests() int64 {
	return w.requests.Load()
}
