package timer

import (
	"fmt"
	"strconv"
	"time"
)

// EngineMode is the lifecycle state of the interval engine
type EngineMode int

const (
	ModeIdle EngineMode = iota
	ModePreparing
	ModeRunning
	ModePaused
	ModeTransitioning
	ModeComplete
)

func (m EngineMode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModePreparing:
		return "Preparing"
	case ModeRunning:
		return "Running"
	case ModePaused:
		return "Paused"
	case ModeTransitioning:
		return "Transitioning"
	case ModeComplete:
		return "Complete"
	default:
		return fmt.Sprintf("EngineMode(%d)", int(m))
	}
}

// RuntimePosition is where a run currently is. Only the interval engine mutates it.
type RuntimePosition struct {
	RoundIndex     int
	SegmentIndex   int
	SegmentElapsed time.Duration
	TotalElapsed   time.Duration
}

// IntervalSnapshot is an immutable copy of the interval engine state for presentation
type IntervalSnapshot struct {
	Mode         EngineMode
	PausePending bool // pause requested during a transition
	Definition   WorkoutDefinition
	Current      *Segment // nil when the definition is empty
	Next         *Segment // nil on the last segment and once complete
	Position     RuntimePosition
	Countdown    int  // prepare or transition count
	Warning      bool // warning flash is showing
	DisplayMode  DisplayMode
}

// Active reports whether a run is in progress
func (s IntervalSnapshot) Active() bool {
	switch s.Mode {
	case ModePreparing, ModeRunning, ModePaused, ModeTransitioning:
		return true
	}
	return false
}

// TotalDuration of the loaded definition
func (s IntervalSnapshot) TotalDuration() time.Duration {
	return s.Definition.TotalDuration()
}

// SegmentRemaining is the time left in the current segment, never negative
func (s IntervalSnapshot) SegmentRemaining() time.Duration {
	if s.Current == nil {
		return 0
	}
	r := s.Current.Duration - s.Position.SegmentElapsed
	if r < 0 {
		return 0
	}
	return r
}

// TotalRemaining is the time left in the whole workout, never negative
func (s IntervalSnapshot) TotalRemaining() time.Duration {
	r := s.TotalDuration() - s.Position.TotalElapsed
	if r < 0 {
		return 0
	}
	return r
}

// Progress is the fraction of the current segment done, clamped to 0..1
func (s IntervalSnapshot) Progress() float64 {
	if s.Current == nil || s.Current.Duration <= 0 {
		return 0
	}
	return clampUnit(float64(s.Position.SegmentElapsed) / float64(s.Current.Duration))
}

// TotalProgress is the fraction of the whole workout done, clamped to 0..1
func (s IntervalSnapshot) TotalProgress() float64 {
	total := s.TotalDuration()
	if total <= 0 {
		return 0
	}
	return clampUnit(float64(s.Position.TotalElapsed) / float64(total))
}

// PositionLabel renders the overall segment number, e.g. "3/16"
func (s IntervalSnapshot) PositionLabel() string {
	n := len(s.Definition.Segments)
	if n == 0 {
		return "0/0"
	}
	rounds := s.Definition.rounds()
	return fmt.Sprintf("%d/%d", s.Position.RoundIndex*n+s.Position.SegmentIndex+1, n*rounds)
}

// RoundLabel renders the round number, e.g. "Round 2/8"
func (s IntervalSnapshot) RoundLabel() string {
	return fmt.Sprintf("Round %d/%d", s.Position.RoundIndex+1, s.Definition.rounds())
}

// MainDisplay is the big readout: the count while preparing or transitioning,
// otherwise the segment time in the configured direction.
func (s IntervalSnapshot) MainDisplay() string {
	if s.Mode == ModePreparing || s.Mode == ModeTransitioning || (s.Mode == ModePaused && s.Countdown > 0) {
		return strconv.Itoa(s.Countdown)
	}
	if s.DisplayMode == DisplayCountup {
		return FormatTime(floorSeconds(s.Position.SegmentElapsed))
	}
	return FormatTime(ceilSeconds(s.SegmentRemaining()))
}

// ElapsedDisplay is the whole-workout elapsed time, rounded down
func (s IntervalSnapshot) ElapsedDisplay() string {
	return FormatTime(floorSeconds(s.Position.TotalElapsed))
}

// RemainingDisplay is the whole-workout remaining time, rounded up
func (s IntervalSnapshot) RemainingDisplay() string {
	return FormatTime(ceilSeconds(s.TotalRemaining()))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
