package timer

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrEmptyWorkout is returned when a workout with no segments is started.
var ErrEmptyWorkout = errors.New("workout has no segments")

// SegmentType classifies a segment for colouring and cue purposes
type SegmentType string

const (
	SegmentWork     SegmentType = "work"
	SegmentRest     SegmentType = "rest"
	SegmentWarmup   SegmentType = "warmup"
	SegmentCooldown SegmentType = "cooldown"
	SegmentPrepare  SegmentType = "prepare"
	SegmentCustom   SegmentType = "custom"
)

const (
	DefaultSegmentName    = "Interval"
	DefaultSegmentSeconds = 30
	MaxSegmentNameLength  = 32
)

// SegmentTypeInfo contains display information for a segment type
type SegmentTypeInfo struct {
	Type        SegmentType
	DisplayName string
	Color       string
}

// AllSegmentTypes defines every segment type in picker order
var AllSegmentTypes = []SegmentTypeInfo{
	{Type: SegmentWork, DisplayName: "Work", Color: "#E8281E"},
	{Type: SegmentRest, DisplayName: "Rest", Color: "#5CC85A"},
	{Type: SegmentWarmup, DisplayName: "Warm-Up", Color: "#2C7BE5"},
	{Type: SegmentCooldown, DisplayName: "Cool-Down", Color: "#7B61FF"},
	{Type: SegmentPrepare, DisplayName: "Prepare", Color: "#F5C518"},
	{Type: SegmentCustom, DisplayName: "Custom", Color: "#8E8E93"},
}

// ParseSegmentType maps a type name onto a known type, falling back to custom.
func ParseSegmentType(s string) SegmentType {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, info := range AllSegmentTypes {
		if string(info.Type) == s {
			return info.Type
		}
	}
	return SegmentCustom
}

// Info returns the display information for the type
func (t SegmentType) Info() SegmentTypeInfo {
	for _, info := range AllSegmentTypes {
		if info.Type == t {
			return info
		}
	}
	return AllSegmentTypes[len(AllSegmentTypes)-1]
}

// Color returns the default colour of the type
func (t SegmentType) Color() string {
	return t.Info().Color
}

// Segment is one named, timed step of a workout
type Segment struct {
	Name     string
	Duration time.Duration
	Type     SegmentType
	Color    string // optional override, empty uses the type colour
}

// NewSegment builds a segment with its inputs clamped into range.
func NewSegment(name string, seconds int, segType SegmentType) Segment {
	return Segment{
		Name:     normalizeName(name),
		Duration: clampSeconds(seconds),
		Type:     ParseSegmentType(string(segType)),
	}
}

// EditSegment builds a segment from separate minute and second fields.
// Negative fields count as zero before the one second minimum is applied.
func EditSegment(name string, minutes, seconds int, segType SegmentType) Segment {
	if minutes < 0 {
		minutes = 0
	}
	if seconds < 0 {
		seconds = 0
	}
	return NewSegment(name, minutes*60+seconds, segType)
}

// DefaultSegment returns the segment added by a plain "add interval" action
func DefaultSegment() Segment {
	return NewSegment(DefaultSegmentName, DefaultSegmentSeconds, SegmentWork)
}

// DisplayColor returns the override colour, or the type colour when unset
func (s Segment) DisplayColor() string {
	if s.Color != "" {
		return s.Color
	}
	return s.Type.Color()
}

// Normalized returns a copy with every field clamped into range.
func (s Segment) Normalized() Segment {
	n := NewSegment(s.Name, int(s.Duration/time.Second), s.Type)
	n.Color = s.Color
	return n
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSegmentName
	}
	if utf8.RuneCountInString(name) > MaxSegmentNameLength {
		name = string([]rune(name)[:MaxSegmentNameLength])
	}
	return name
}

func clampSeconds(seconds int) time.Duration {
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// WorkoutDefinition is an ordered list of segments repeated Rounds times
type WorkoutDefinition struct {
	Segments []Segment
	Rounds   int
}

// DefaultDefinition is the workout loaded when nothing else has been chosen
func DefaultDefinition() WorkoutDefinition {
	return WorkoutDefinition{
		Segments: []Segment{
			NewSegment("Work", 30, SegmentWork),
			NewSegment("Rest", 15, SegmentRest),
		},
		Rounds: 3,
	}
}

// TotalDuration returns the summed segment durations times the round count.
func (d WorkoutDefinition) TotalDuration() time.Duration {
	var sum time.Duration
	for _, s := range d.Segments {
		sum += s.Duration
	}
	return sum * time.Duration(d.rounds())
}

// RoundDuration returns the duration of one pass through the segments
func (d WorkoutDefinition) RoundDuration() time.Duration {
	var sum time.Duration
	for _, s := range d.Segments {
		sum += s.Duration
	}
	return sum
}

// Validate reports whether the definition can be run
func (d WorkoutDefinition) Validate() error {
	if len(d.Segments) == 0 {
		return ErrEmptyWorkout
	}
	return nil
}

// Clone returns a deep copy
func (d WorkoutDefinition) Clone() WorkoutDefinition {
	c := WorkoutDefinition{Rounds: d.Rounds}
	if d.Segments != nil {
		c.Segments = make([]Segment, len(d.Segments))
		copy(c.Segments, d.Segments)
	}
	return c
}

// Normalized returns a deep copy with all segments and the round count clamped.
func (d WorkoutDefinition) Normalized() WorkoutDefinition {
	c := WorkoutDefinition{Rounds: d.rounds(), Segments: make([]Segment, 0, len(d.Segments))}
	for _, s := range d.Segments {
		c.Segments = append(c.Segments, s.Normalized())
	}
	return c
}

// WithSegment returns a copy with seg appended
func (d WorkoutDefinition) WithSegment(seg Segment) WorkoutDefinition {
	c := d.Clone()
	c.Segments = append(c.Segments, seg.Normalized())
	return c
}

// WithoutSegment returns a copy with the segment at index removed.
// An out of range index returns an unchanged copy.
func (d WorkoutDefinition) WithoutSegment(index int) WorkoutDefinition {
	c := d.Clone()
	if index < 0 || index >= len(c.Segments) {
		return c
	}
	c.Segments = append(c.Segments[:index], c.Segments[index+1:]...)
	return c
}

// WithReplacedSegment returns a copy with the segment at index replaced.
// An out of range index returns an unchanged copy.
func (d WorkoutDefinition) WithReplacedSegment(index int, seg Segment) WorkoutDefinition {
	c := d.Clone()
	if index < 0 || index >= len(c.Segments) {
		return c
	}
	c.Segments[index] = seg.Normalized()
	return c
}

// WithRounds returns a copy with the round count set, minimum one
func (d WorkoutDefinition) WithRounds(rounds int) WorkoutDefinition {
	c := d.Clone()
	if rounds < 1 {
		rounds = 1
	}
	c.Rounds = rounds
	return c
}

// Description joins the segment names with arrows
func (d WorkoutDefinition) Description() string {
	names := make([]string, 0, len(d.Segments))
	for _, s := range d.Segments {
		names = append(names, s.Name)
	}
	return strings.Join(names, " → ")
}

func (d WorkoutDefinition) rounds() int {
	if d.Rounds < 1 {
		return 1
	}
	return d.Rounds
}
