// Package pkg holds small formatting helpers shared by the HTTP layer.
package pkg

import (
	"strconv"
	"strings"
	"time"
)

type unit struct {
	suffix string
	size   time.Duration
}

// largest first
var units = []unit{
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
	{"μs", time.Microsecond},
	{"ns", time.Nanosecond},
}

// FormatDuration renders d with at most parts units, largest first: 90s with
// parts=2 is "1m30s". Sub-second values use a single unit.
func FormatDuration(d time.Duration, parts int) string {
	if d == 0 {
		return "0"
	}
	neg := d < 0
	if neg {
		d = -d
	}
	if d < time.Second {
		parts = 1
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	written := 0
	for _, u := range units {
		if d < u.size {
			continue
		}
		b.WriteString(strconv.FormatInt(int64(d/u.size), 10))
		b.WriteString(u.suffix)
		d %= u.size
		written++
		if written == parts || d == 0 {
			break
		}
	}
	return b.String()
}

// SmartDurationFormat is FormatDuration with two units. Used by the timing headers.
func SmartDurationFormat(d time.Duration) string { return FormatDuration(d, 2) }

// Ago renders an elapsed time for humans: "just now" under a minute, else the
// largest unit, "3h ago".
func Ago(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	return FormatDuration(d.Truncate(time.Minute), 1) + " ago"
}

// LastSeen formats a client's RFC 3339 last-seen timestamp relative to now.
// Empty or unparsable values read "never".
func LastSeen(raw string, now time.Time) string {
	if raw == "" {
		return "never"
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "never"
	}
	return Ago(now.Sub(t))
}
