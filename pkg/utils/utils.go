package utils

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// FormatRounded renders d truncated to its largest whole unit, e.g. 90s is
// "1m" and 26h is "1d". Negative durations are formatted by magnitude.
func FormatRounded(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	case d < day:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int64(d/day))
	}
}

// FormatRoundedSeconds is FormatRounded for a fractional number of seconds
func FormatRoundedSeconds(seconds float64) string {
	return FormatRounded(time.Duration(seconds * float64(time.Second)))
}
