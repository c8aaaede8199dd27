// Package request decodes observation requests and turns them into typed
// parameters. Anything wrong with the top-level fields is fatal for the
// request and wraps ErrInvalid; problems with individual satellites are not
// checked here.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/transform"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid request")

// Coordinate accepts a JSON number or a numeric string.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %s", b)
	}
	*c = Coordinate(v)
	return nil
}

// Satellite is a caller-supplied element set.
type Satellite struct {
	Name string `json:"name"`
	TLE1 string `json:"tle1"`
	TLE2 string `json:"tle2"`
}

// Raw is the request as it arrives on the wire.
type Raw struct {
	Lat        *Coordinate `json:"lat"`
	Lon        *Coordinate `json:"lon"`
	Date       string      `json:"date"`
	Timezone   string      `json:"timezone,omitempty"`
	TimeMode   string      `json:"time_mode,omitempty"`
	StartTime  string      `json:"start_time,omitempty"`
	EndTime    string      `json:"end_time,omitempty"`
	Satellites []Satellite `json:"satellites,omitempty"`
}

// Params are validated request parameters.
type Params struct {
	Lat      float64
	Lon      float64
	Date     timeline.Date
	Timezone string
	Location *time.Location
	Mode     timeline.Mode

	// Satellites are the caller's element sets, in request order.
	Satellites []tle.TLEEntry
}

// Observer returns the observer at sea level.
func (p Params) Observer() transform.ObserverPosition {
	return transform.NewObserverPosition(p.Lat, p.Lon, 0)
}

// CustomTimes returns the custom start and end as "HH:MM", or empty strings
// in auto mode.
func (p Params) CustomTimes() (string, string) {
	if c, ok := p.Mode.(timeline.Custom); ok {
		return c.Start.String(), c.End.String()
	}
	return "", ""
}

// Decode reads one JSON request from r and validates it.
func Decode(r io.Reader) (Params, error) {
	var raw Raw
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Params{}, fmt.Errorf("%w: decode JSON: %v", ErrInvalid, err)
	}
	return raw.Validate()
}

// within reports whether v is a finite value in [-limit, limit].
func within(v, limit float64) bool {
	return v >= -limit && v <= limit
}

// Validate checks the top-level fields. A custom mode missing either time
// falls back to auto.
func (raw Raw) Validate() (Params, error) {
	if raw.Lat == nil {
		return Params{}, fmt.Errorf("%w: missing lat", ErrInvalid)
	}
	if raw.Lon == nil {
		return Params{}, fmt.Errorf("%w: missing lon", ErrInvalid)
	}
	p := Params{Lat: float64(*raw.Lat), Lon: float64(*raw.Lon)}
	if !within(p.Lat, 90) {
		return Params{}, fmt.Errorf("%w: lat %v out of range [-90, 90]", ErrInvalid, p.Lat)
	}
	if !within(p.Lon, 180) {
		return Params{}, fmt.Errorf("%w: lon %v out of range [-180, 180]", ErrInvalid, p.Lon)
	}

	if strings.TrimSpace(raw.Date) == "" {
		return Params{}, fmt.Errorf("%w: missing date", ErrInvalid)
	}
	date, err := timeline.ParseDate(strings.TrimSpace(raw.Date))
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	p.Date = date

	p.Timezone = strings.TrimSpace(raw.Timezone)
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if p.Location, err = time.LoadLocation(p.Timezone); err != nil {
		return Params{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalid, p.Timezone)
	}

	if p.Mode, err = parseMode(raw.TimeMode, raw.StartTime, raw.EndTime); err != nil {
		return Params{}, err
	}

	for _, s := range raw.Satellites {
		p.Satellites = append(p.Satellites, tle.EntryFromLines(s.Name, s.TLE1, s.TLE2))
	}
	return p, nil
}

func parseMode(mode, start, end string) (timeline.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return timeline.Auto{}, nil
	case "custom":
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)
		if start == "" || end == "" {
			return timeline.Auto{}, nil
		}
		s, err := timeline.ParseClock(start)
		if err != nil {
			return nil, fmt.Errorf("%w: start_time: %v", ErrInvalid, err)
		}
		e, err := timeline.ParseClock(end)
		if err != nil {
			return nil, fmt.Errorf("%w: end_time: %v", ErrInvalid, err)
		}
		return timeline.Custom{Start: s, End: e}, nil
	default:
		return nil, fmt.Errorf("%w: time_mode %q must be auto or custom", ErrInvalid, mode)
	}
}

// RequireSatellites fails when the request carries no satellites.
func (p Params) RequireSatellites() error {
	if len(p.Satellites) == 0 {
		return fmt.Errorf("%w: missing satellites", ErrInvalid)
	}
	return nil
}
