package templates

import "github.com/lowaak/intervals/internal/timer"

// BuiltInTemplates returns the templates shipped with the app, in display order
func BuiltInTemplates() []Template {
	return []Template{
		{
			ID:          "tabata",
			Name:        "Tabata",
			Description: "Classic 20s on / 10s off × 8 rounds",
			Color:       "#E8281E",
			BuiltIn:     true,
			Definition: timer.WorkoutDefinition{
				Rounds: 8,
				Segments: []timer.Segment{
					timer.NewSegment("Work", 20, timer.SegmentWork),
					timer.NewSegment("Rest", 10, timer.SegmentRest),
				},
			},
		},
		{
			ID:          "hiit30",
			Name:        "HIIT 30/30",
			Description: "30s high intensity / 30s recovery × 10",
			Color:       "#F5C518",
			BuiltIn:     true,
			Definition: timer.WorkoutDefinition{
				Rounds: 10,
				Segments: []timer.Segment{
					timer.NewSegment("High Intensity", 30, timer.SegmentWork),
					timer.NewSegment("Low Intensity", 30, timer.SegmentRest),
				},
			},
		},
		{
			ID:          "circuit",
			Name:        "Circuit Training",
			Description: "45s work / 15s transition × 6 stations",
			Color:       "#2C7BE5",
			BuiltIn:     true,
			Definition: timer.WorkoutDefinition{
				Rounds: 6,
				Segments: []timer.Segment{
					timer.NewSegment("Warm-Up", 120, timer.SegmentWarmup),
					timer.NewSegment("Work", 45, timer.SegmentWork),
					timer.NewSegment("Transition", 15, timer.SegmentRest),
					timer.NewSegment("Cool-Down", 60, timer.SegmentCooldown),
				},
			},
		},
		{
			ID:          "amrap",
			Name:        "AMRAP",
			Description: "As Many Rounds As Possible – 20 min",
			Color:       "#7B61FF",
			BuiltIn:     true,
			Definition: timer.WorkoutDefinition{
				Rounds: 1,
				Segments: []timer.Segment{
					timer.NewSegment("AMRAP", 1200, timer.SegmentWork),
				},
			},
		},
	}
}

func isBuiltInID(id string) bool {
	for _, t := range BuiltInTemplates() {
		if t.ID == id {
			return true
		}
	}
	return false
}
