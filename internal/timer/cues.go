package timer

import (
	"log"
	"time"

	"github.com/lowaak/intervals/internal/go_func_utils"
)

// CueKind names a symbolic cue; renderers decide what it sounds like
type CueKind string

const (
	CuePrepare    CueKind = "prepare"
	CueStart      CueKind = "start"
	CueWarn       CueKind = "warn"
	CueTransition CueKind = "transition"
	CueEnd        CueKind = "end"
)

// Announcements spoken by the engines
const (
	AnnounceWorkoutComplete = "Workout complete! Great work!"
	AnnounceTimeUp          = "Time is up"
)

func hapticPattern(ms ...int) []time.Duration {
	p := make([]time.Duration, len(ms))
	for i, v := range ms {
		p[i] = time.Duration(v) * time.Millisecond
	}
	return p
}

// Vibration patterns, alternating on and off durations
var (
	HapticStart        = hapticPattern(30)
	HapticPauseResume  = hapticPattern(10)
	HapticWarn         = hapticPattern(10, 50, 10)
	HapticTransition   = hapticPattern(15, 30, 15)
	HapticComplete     = hapticPattern(50, 100, 50, 100, 50)
	HapticCountdownEnd = hapticPattern(50, 100, 50)
	HapticLap          = hapticPattern(10)
)

// CueDispatcher renders a symbolic cue. segment may be nil.
type CueDispatcher interface {
	Fire(kind CueKind, segment *Segment)
}

// Speaker speaks text aloud
type Speaker interface {
	Announce(text string)
}

// Haptics plays a vibration pattern
type Haptics interface {
	Pulse(pattern []time.Duration)
}

// WakeLock asks the platform to keep the screen awake
type WakeLock interface {
	Request() error
}

// Outputs is the single boundary through which engines reach their collaborators.
// Nil collaborators are skipped; panics are logged and swallowed.
type Outputs struct {
	Cues     CueDispatcher
	Speaker  Speaker
	Haptics  Haptics
	WakeLock WakeLock

	logger *log.Logger
}

// NewOutputs creates an Outputs; any collaborator may be nil
func NewOutputs(logger *log.Logger, cues CueDispatcher, speaker Speaker, haptics Haptics, wakeLock WakeLock) *Outputs {
	if logger == nil {
		panic("Outputs: logger cannot be nil")
	}
	return &Outputs{
		Cues:     cues,
		Speaker:  speaker,
		Haptics:  haptics,
		WakeLock: wakeLock,
		logger:   logger,
	}
}

// Fire dispatches a cue. The segment is copied so the receiver cannot alias engine state.
func (o *Outputs) Fire(kind CueKind, segment *Segment) {
	if o == nil || o.Cues == nil {
		return
	}
	var seg *Segment
	if segment != nil {
		c := *segment
		seg = &c
	}
	go_func_utils.SafeCall(o.logger, "Outputs: cue "+string(kind), func() {
		o.Cues.Fire(kind, seg)
	})
}

// Announce passes text to the speaker
func (o *Outputs) Announce(text string) {
	if o == nil || o.Speaker == nil || text == "" {
		return
	}
	go_func_utils.SafeCall(o.logger, "Outputs: announce", func() {
		o.Speaker.Announce(text)
	})
}

// Pulse plays a haptic pattern
func (o *Outputs) Pulse(pattern []time.Duration) {
	if o == nil || o.Haptics == nil || len(pattern) == 0 {
		return
	}
	p := append([]time.Duration(nil), pattern...)
	go_func_utils.SafeCall(o.logger, "Outputs: haptics", func() {
		o.Haptics.Pulse(p)
	})
}

// RequestWakeLock asks for the wake lock, logging failures
func (o *Outputs) RequestWakeLock() {
	if o == nil || o.WakeLock == nil {
		return
	}
	go_func_utils.SafeCall(o.logger, "Outputs: wake lock", func() {
		if err := o.WakeLock.Request(); err != nil {
			o.logger.Printf("Outputs: wake lock request failed: %v", err)
		}
	})
}
