// Package workday resolves the 09:00-17:00 workday window for a date in a
// given timezone.
package workday

import (
	"fmt"
	"regexp"
	"time"

	"github.com/codeGROOVE-dev/bandwidth/pkg/tzclock"
)

// Workday boundaries in local wall-clock hours.
const (
	StartHour = 9
	EndHour   = 17
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a calendar date with no timezone attached.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate validates a YYYY-MM-DD string. Anything not matching the shape,
// or containing a zero component, is rejected.
func ParseDate(s string) (Date, bool) {
	if !dateRegex.MatchString(s) {
		return Date{}, false
	}

	var d Date
	if _, err := fmt.Sscanf(s, "%04d-%02d-%02d", &d.Year, &d.Month, &d.Day); err != nil {
		return Date{}, false
	}
	if d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return Date{}, false
	}

	return d, true
}

// Window holds the absolute-instant boundaries of one workday.
type Window struct {
	Date  Date
	Start time.Time
	End   time.Time
}

// Minutes returns the window length in minutes.
func (w Window) Minutes() float64 {
	return w.End.Sub(w.Start).Minutes()
}

// Resolve produces the workday window for dateString in zone. An empty or
// unparseable dateString falls back to the current date as observed in
// zone (not the process-local date), taken from now.
func Resolve(zone, dateString string, now time.Time) Window {
	date, ok := ParseDate(dateString)
	if !ok {
		year, month, day := tzclock.DateInZone(now, zone)
		date = Date{Year: year, Month: month, Day: day}
	}

	return Window{
		Date:  date,
		Start: tzclock.ToInstant(date.Year, date.Month, date.Day, StartHour, 0, zone),
		End:   tzclock.ToInstant(date.Year, date.Month, date.Day, EndHour, 0, zone),
	}
}
