package ui

import "time"

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeTimer     UIMode = iota // Interval workout editor and runner
	UIModeTemplates               // Built-in and saved templates
	UIModeStopwatch               // Stopwatch with laps
	UIModeCountdown               // Single countdown
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	Key         string // persisted name
	KeyBinding  rune   // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeTimer, DisplayName: "Timer", Key: "timer", KeyBinding: '1'},
	{Mode: UIModeTemplates, DisplayName: "Templates", Key: "templates", KeyBinding: '2'},
	{Mode: UIModeStopwatch, DisplayName: "Stopwatch", Key: "stopwatch", KeyBinding: '3'},
	{Mode: UIModeCountdown, DisplayName: "Countdown", Key: "countdown", KeyBinding: '4'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

func getUIModeByName(name string) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.Key == name {
			return info.Mode, true
		}
	}
	return 0, false
}

// Notices shown to the user
const (
	NoticeEmptyWorkout    = "Add at least one interval"
	NoticeBusyWorkout     = "Reset the workout to edit it"
	NoticeBuiltInTemplate = "Built-in templates cannot be deleted"
	NoticeTemplateName    = "Enter a template name"
	NoticeSettingsSaved   = "Settings saved"
)

// NoticeDuration is how long a notice stays up
const NoticeDuration = 2 * time.Second

const maxLogLines = 1000
