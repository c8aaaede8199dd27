package tle

import "time"

// LineLength is the fixed width of both element-set lines.
const LineLength = 69

// TLEEntry is one catalog object: its identifier, display name, the two
// element-set lines and the optional catalog metadata carried alongside them.
// Entries are immutable once fetched.
type TLEEntry struct {
	ID          string // catalog-unique identifier (used for exclusion)
	NORADID     int
	Name        string
	Epoch       time.Time
	Line1       string
	Line2       string
	ObjectType  string // e.g. PAYLOAD, ROCKET BODY, DEBRIS
	CountryCode string
}

// Elements are the mean orbital elements decoded from an element set.
type Elements struct {
	Epoch             time.Time
	InclinationDeg    float64
	RAANDeg           float64
	Eccentricity      float64
	ArgPerigeeDeg     float64
	MeanAnomalyDeg    float64
	MeanMotionRevDay  float64
	BStar             float64
	MeanMotionDot     float64
	MeanMotionDDot    float64
	RevolutionAtEpoch int
}

// PeriodMinutes returns the orbital period implied by the mean motion.
func (e Elements) PeriodMinutes() float64 {
	if e.MeanMotionRevDay <= 0 {
		return 0
	}
	return 1440.0 / e.MeanMotionRevDay
}
