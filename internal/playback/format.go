package playback

import (
	"fmt"
	"time"
)

// FormatDuration renders d as m:ss, or h:mm:ss past an hour. Negative durations render as --:--.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "--:--"
	}

	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
