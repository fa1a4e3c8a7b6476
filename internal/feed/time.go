package feed

import (
	"fmt"
	"time"
)

// RelativeTime renders how long before now ts (RFC 3339) happened:
// "just now" under a minute, then whole minutes, hours, or days.
// Timestamps in the future count as "just now". Unparsable input is
// returned unchanged.
func RelativeTime(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}

	secs := int64(now.Sub(t) / time.Second)

	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}
