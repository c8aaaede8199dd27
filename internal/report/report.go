// Package report shapes engine results into the JSON documents returned to
// callers.
package report

import (
	"math"
	"time"
)

const (
	utcLayout   = "2006-01-02 15:04:05 UTC"
	localLayout = "2006-01-02 15:04:05 MST"
)

// Failure is returned when a request cannot be computed at all.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewFailure builds a failure document.
func NewFailure(err error, message string) Failure {
	return Failure{Success: false, Error: err.Error(), Message: message}
}

// FormatUTC renders t in UTC as "YYYY-MM-DD HH:MM:SS UTC".
func FormatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

// FormatLocal renders t in loc with its zone abbreviation.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(localLayout)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
