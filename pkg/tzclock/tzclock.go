// Package tzclock provides wall-clock to absolute-instant conversion for
// IANA timezones. ALL interval math in the codebase happens on UTC instants;
// these functions handle the conversion to/from local time at the edges.
package tzclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OffsetMinutes returns the UTC offset of zone at instant t, in minutes.
// Examples:
//   - "America/New_York" returns -240 or -300 depending on DST at t
//   - "Asia/Kolkata" returns 330
//   - "UTC+5:30" and "UTC-4" parse as fixed offsets
//   - Invalid input returns 0 (the caller proceeds as if the zone were UTC)
func OffsetMinutes(t time.Time, zone string) int {
	if loc, err := time.LoadLocation(zone); err == nil {
		_, offsetSeconds := t.In(loc).Zone()
		return offsetSeconds / 60
	}

	// Fall back to a textual UTC+/- offset
	if strings.HasPrefix(zone, "UTC") {
		return parseTextualOffset(strings.TrimPrefix(zone, "UTC"))
	}

	return 0
}

// parseTextualOffset parses "+5", "-4", "+05:30", "" into minutes.
func parseTextualOffset(s string) int {
	if s == "" {
		return 0 // Plain "UTC"
	}

	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	default:
		// No sign means positive offset
	}

	hoursPart, minutesPart, hasMinutes := strings.Cut(s, ":")
	hours, err := strconv.Atoi(hoursPart)
	if err != nil {
		return 0
	}

	minutes := 0
	if hasMinutes {
		if minutes, err = strconv.Atoi(minutesPart); err != nil {
			return 0
		}
	}

	return sign * (hours*60 + minutes)
}

// ToInstant converts local wall-clock fields in zone to an absolute UTC
// instant. The mapping from wall clock to instant depends on the instant
// itself (the offset changes at DST transitions), so a first guess treating
// the fields as UTC is corrected iteratively: look up the offset at the
// guess, subtract it, repeat. Three iterations are enough for the guess to
// converge on a consistent instant even right at a transition.
func ToInstant(year, month, day, hour, minute int, zone string) time.Time {
	wallClock := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)

	instant := wallClock
	for range 3 {
		offset := OffsetMinutes(instant, zone)
		candidate := wallClock.Add(-time.Duration(offset) * time.Minute)
		if candidate.Equal(instant) {
			break
		}
		instant = candidate
	}

	return instant
}

// DateInZone returns the calendar date observed in zone at instant t.
// Unknown zones degrade to UTC, consistent with OffsetMinutes.
func DateInZone(t time.Time, zone string) (year, month, day int) {
	local := t.UTC().Add(time.Duration(OffsetMinutes(t, zone)) * time.Minute)
	y, m, d := local.Date()
	return y, int(m), d
}

// FormatISO renders instant t as an ISO-8601 string with the numeric UTC
// offset of zone, e.g. "2024-06-03T09:00:00-04:00".
func FormatISO(t time.Time, zone string) string {
	offset := OffsetMinutes(t, zone)
	local := t.UTC().Add(time.Duration(offset) * time.Minute)

	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}

	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d%s%02d:%02d",
		local.Year(), int(local.Month()), local.Day(),
		local.Hour(), local.Minute(), local.Second(),
		sign, offset/60, offset%60)
}
