package domain

import (
	"strings"
	"time"
)

// Opening-hours text in the catalog is free-form: "6:00 AM", "7:00PM",
// "22:00", "24/7", "N/A", or blank. Parsing is deliberately forgiving
// and unknown schedules count as open, so a badly formatted row never
// hides a parking spot from the user.

var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15:04",
	"15",
}

// parseHour extracts the hour of day (0-23) from schedule text.
func parseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0, false
	}
	if strings.Contains(s, "24/7") {
		return 0, true
	}

	normalized := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

// OpenAt computes whether a window described by opening/closing text
// covers the given hour. "24/7" on either side means always open, and
// so does anything unparseable or degenerate (open == close).
// Windows that close past midnight (e.g. 20:00-4:00) wrap correctly.
func OpenAt(opening, closing string, hour int) bool {
	if strings.Contains(strings.ToUpper(opening), "24/7") ||
		strings.Contains(strings.ToUpper(closing), "24/7") {
		return true
	}

	openH, okOpen := parseHour(opening)
	closeH, okClose := parseHour(closing)
	if !okOpen || !okClose {
		return true
	}
	if openH == closeH {
		return true
	}

	if openH < closeH {
		return openH <= hour && hour < closeH
	}
	// overnight window
	return hour >= openH || hour < closeH
}
