package timeline

import "time"

// NormalizeSpan rolls end forward by one calendar day when it does not fall
// after start, so a same-day "23:00 to 01:00" span means the night across
// midnight.
func NormalizeSpan(start, end time.Time) (time.Time, time.Time) {
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// DaySpan returns the local calendar day [00:00:00, 23:59:59] of d in loc.
func DaySpan(d Date, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, loc)
	return start, end
}

// CustomSpan returns the normalized span of a custom mode on d in loc.
func CustomSpan(d Date, c Custom, loc *time.Location) (time.Time, time.Time) {
	return NormalizeSpan(d.At(c.Start, loc), d.At(c.End, loc))
}
