package cues

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/lowaak/intervals/internal/events"
	"github.com/lowaak/intervals/internal/go_func_utils"
	"github.com/lowaak/intervals/internal/timer"
)

// Tone is a single beep at Offset from the start of its pattern
type Tone struct {
	Freq   int // Hz, informational; a terminal bell has one pitch
	Length time.Duration
	Offset time.Duration
}

// Pattern is a short sequence of tones
type Pattern []Tone

// Duration is the time from the first tone starting to the last one ending
func (p Pattern) Duration() time.Duration {
	var end time.Duration
	for _, t := range p {
		if e := t.Offset + t.Length; e > end {
			end = e
		}
	}
	return end
}

var (
	BeepPattern  = Pattern{{Freq: 880, Length: 120 * time.Millisecond}}
	WarnPattern  = Pattern{{Freq: 660, Length: 80 * time.Millisecond}, {Freq: 660, Length: 80 * time.Millisecond, Offset: 150 * time.Millisecond}}
	BellPattern  = Pattern{{Freq: 523, Length: 500 * time.Millisecond}, {Freq: 659, Length: 500 * time.Millisecond, Offset: 80 * time.Millisecond}, {Freq: 784, Length: 500 * time.Millisecond, Offset: 160 * time.Millisecond}}
	StartPattern = Pattern{{Freq: 440, Length: 350 * time.Millisecond}, {Freq: 554, Length: 350 * time.Millisecond, Offset: 100 * time.Millisecond}, {Freq: 659, Length: 350 * time.Millisecond, Offset: 200 * time.Millisecond}, {Freq: 880, Length: 350 * time.Millisecond, Offset: 300 * time.Millisecond}}
)

// PatternFor picks the pattern for a cue. Silent mode returns nil.
func PatternFor(mode timer.SoundMode, kind timer.CueKind) Pattern {
	switch mode {
	case timer.SoundSilent:
		return nil
	case timer.SoundBell:
		return BellPattern
	}
	switch kind {
	case timer.CueStart:
		return StartPattern
	case timer.CueWarn:
		return WarnPattern
	case timer.CueEnd:
		return BellPattern
	default:
		return BeepPattern
	}
}

// Beeper rings the terminal bell. tcell.Screen satisfies it.
type Beeper interface {
	Beep() error
}

// WriterBeeper rings by writing BEL to W
type WriterBeeper struct {
	W io.Writer
}

func (b WriterBeeper) Beep() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// CueEvent is published for every cue fired, whether or not it was audible
type CueEvent struct {
	Kind    timer.CueKind
	Segment string
	Pattern Pattern
}

// TerminalCues renders cue patterns on the terminal bell and publishes each cue
// so the UI can flash it. Implements timer.CueDispatcher.
type TerminalCues struct {
	beeper   Beeper
	settings timer.SettingsSource
	logger   *log.Logger
	sleep    func(time.Duration)

	mu    sync.Mutex // one pattern rings at a time
	fired *events.CallbackEvent[CueEvent]
}

func NewTerminalCues(beeper Beeper, settings timer.SettingsSource, logger *log.Logger) *TerminalCues {
	if logger == nil {
		panic("TerminalCues: logger cannot be nil")
	}
	if settings == nil {
		panic("TerminalCues: settings cannot be nil")
	}
	return &TerminalCues{
		beeper:   beeper,
		settings: settings,
		logger:   logger,
		sleep:    time.Sleep,
		fired:    events.NewCallbackEvent[CueEvent](false),
	}
}

// ListenToCues registers fn for every fired cue
func (c *TerminalCues) ListenToCues(fn func(CueEvent)) func() {
	return c.fired.Listen(fn)
}

// Fire publishes the cue and rings its pattern in the background
func (c *TerminalCues) Fire(kind timer.CueKind, segment *timer.Segment) {
	ev := CueEvent{Kind: kind, Pattern: PatternFor(c.settings.Settings().SoundMode, kind)}
	if segment != nil {
		ev.Segment = segment.Name
	}
	c.logger.Printf("TerminalCues: %s %q (%d tones)", kind, ev.Segment, len(ev.Pattern))
	c.fired.Notify(ev)

	if len(ev.Pattern) == 0 || c.beeper == nil {
		return
	}
	go_func_utils.SafeGo(c.logger, func() {
		c.ring(ev.Pattern)
	})
}

// ring plays p synchronously
func (c *TerminalCues) ring(p Pattern) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var at time.Duration
	for _, t := range p {
		if wait := t.Offset - at; wait > 0 {
			c.sleep(wait)
			at = t.Offset
		}
		if err := c.beeper.Beep(); err != nil {
			c.logger.Printf("TerminalCues: beep failed: %v", err)
			return
		}
	}
}

func (e CueEvent) String() string {
	if e.Segment == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Segment)
}
