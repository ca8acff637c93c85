package timer

import (
	"fmt"
	"time"
)

// FormatTime renders d as m:ss, rounding down and clamping at zero.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatStopwatch renders d as MM:SS.cc
func FormatStopwatch(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d / time.Millisecond)
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	cents := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", mins, secs, cents)
}

// ceilSeconds rounds d up to a whole number of seconds
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	whole := d.Truncate(time.Second)
	if whole < d {
		whole += time.Second
	}
	return whole
}

// floorSeconds rounds d down to a whole number of seconds
func floorSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Second)
}
