package pkg

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d     time.Duration
		parts int
		want  string
	}{
		{0, 2, "0"},
		{1500 * time.Microsecond, 2, "1ms"},
		{999 * time.Nanosecond, 2, "999ns"},
		{90 * time.Second, 2, "1m30s"},
		{26*time.Hour + 5*time.Minute + 3*time.Second, 2, "1d2h"},
		{26*time.Hour + 5*time.Minute, 3, "1d2h5m"},
		{2 * time.Hour, 2, "2h"},
		{-90 * time.Second, 2, "-1m30s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d, tc.parts); got != tc.want {
			t.Errorf("FormatDuration(%v, %d) = %q, want %q", tc.d, tc.parts, got, tc.want)
		}
	}
	if got := SmartDurationFormat(3723 * time.Second); got != "1h2m" {
		t.Errorf("SmartDurationFormat = %q", got)
	}
}

func TestLastSeen(t *testing.T) {
	now := time.Date(2026, 10, 1, 13, 30, 0, 0, time.UTC)
	cases := map[string]string{
		"":                     "never",
		"yesterday":            "never",
		"2026-10-01T13:29:40Z": "just now",
		"2026-10-01T10:00:00Z": "3h ago",
		"2026-09-28T13:30:00Z": "3d ago",
	}
	for raw, want := range cases {
		if got := LastSeen(raw, now); got != want {
			t.Errorf("LastSeen(%q) = %q, want %q", raw, got, want)
		}
	}
}
