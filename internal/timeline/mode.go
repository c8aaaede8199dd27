// Package timeline turns an observation date into the sampled instants that
// objects are evaluated against. In auto mode the day is scanned for darkness
// windows and only dark instants are kept; in custom mode every instant of the
// caller's time-of-day span is kept and darkness is left to classification.
package timeline

import (
	"fmt"
	"time"
)

// Calculation method labels reported to callers.
const (
	MethodAuto     = "Auto Night Detection"
	MethodCustom   = "Custom Time Range"
	MethodNoWindow = "No valid time range found (Sun altitude never ≤ -12°)"
)

// Mode selects how the observation span is built. It is a closed set:
// Auto and Custom are the only implementations.
type Mode interface {
	// Name is the wire name of the mode ("auto" or "custom").
	Name() string
	isMode()
}

// Auto scans the whole local day for darkness windows.
type Auto struct{}

// Custom observes an explicit local time-of-day span. An End at or before
// Start spans into the next day.
type Custom struct {
	Start Clock
	End   Clock
}

func (Auto) Name() string   { return "auto" }
func (Custom) Name() string { return "custom" }
func (Auto) isMode()        {}
func (Custom) isMode()      {}

// Clock is a local time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24-hour).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Date is a civil calendar date, interpreted in the request's time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// At returns the instant of the given clock time on d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}
