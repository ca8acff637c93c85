package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lowaak/intervals/internal/timer"
)

var (
	ErrBuiltInTemplate  = errors.New("built-in templates cannot be changed")
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateName     = errors.New("template name is required")
)

// Template is a named, reusable workout definition
type Template struct {
	ID          string
	Name        string
	Description string
	Color       string
	BuiltIn     bool
	Definition  timer.WorkoutDefinition
}

// Summary renders the round count and total time, e.g. "8 rounds · 4:00"
func (t Template) Summary() string {
	rounds := t.Definition.Rounds
	if rounds < 1 {
		rounds = 1
	}
	plural := "s"
	if rounds == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d round%s · %s", rounds, plural, timer.FormatTime(t.Definition.TotalDuration()))
}

// Store persists user templates. Built-ins are never stored.
type Store interface {
	LoadDefinitions(ctx context.Context) ([]Template, error)
	SaveDefinitions(ctx context.Context, templates []Template) error
}

// templateRecord is the serialized form shared by the stores
type templateRecord struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"desc" yaml:"desc"`
	Color       string          `json:"color" yaml:"color"`
	Rounds      int             `json:"rounds" yaml:"rounds"`
	Intervals   []segmentRecord `json:"intervals" yaml:"intervals"`
}

type segmentRecord struct {
	Name     string `json:"name" yaml:"name"`
	Duration int    `json:"duration" yaml:"duration"` // seconds
	Type     string `json:"type" yaml:"type"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
}

// definitionRecord is the definition part of a template, stored as one JSON column in sqlite
type definitionRecord struct {
	Rounds    int             `json:"rounds"`
	Intervals []segmentRecord `json:"intervals"`
}

func toSegmentRecords(def timer.WorkoutDefinition) []segmentRecord {
	out := make([]segmentRecord, 0, len(def.Segments))
	for _, s := range def.Segments {
		out = append(out, segmentRecord{
			Name:     s.Name,
			Duration: int(s.Duration / time.Second),
			Type:     string(s.Type),
			Color:    s.Color,
		})
	}
	return out
}

// fromSegmentRecords rebuilds a definition, clamping anything out of range
func fromSegmentRecords(rounds int, recs []segmentRecord) timer.WorkoutDefinition {
	def := timer.WorkoutDefinition{Rounds: rounds, Segments: make([]timer.Segment, 0, len(recs))}
	for _, r := range recs {
		s := timer.NewSegment(r.Name, r.Duration, timer.SegmentType(r.Type))
		s.Color = r.Color
		def.Segments = append(def.Segments, s)
	}
	return def.Normalized()
}

func toRecord(t Template) templateRecord {
	return templateRecord{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Color:       t.Color,
		Rounds:      t.Definition.Rounds,
		Intervals:   toSegmentRecords(t.Definition),
	}
}

func fromRecord(r templateRecord) Template {
	return Template{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Definition:  fromSegmentRecords(r.Rounds, r.Intervals),
	}
}

// EncodeDefinition renders def in the JSON form used for stored definitions
func EncodeDefinition(def timer.WorkoutDefinition) ([]byte, error) {
	raw, err := json.Marshal(definitionRecord{Rounds: def.Rounds, Intervals: toSegmentRecords(def)})
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	return raw, nil
}

// DecodeDefinition parses JSON written by EncodeDefinition and normalizes the result
func DecodeDefinition(raw []byte) (timer.WorkoutDefinition, error) {
	var rec definitionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return timer.WorkoutDefinition{}, fmt.Errorf("decode definition: %w", err)
	}
	return fromSegmentRecords(rec.Rounds, rec.Intervals), nil
}
