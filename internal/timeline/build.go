package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/star/skywatch/internal/transform"
)

// Config controls timeline construction.
type Config struct {
	Resolution        time.Duration
	DarknessThreshold float64 // degrees; the Sun at or below this is dark
}

// DefaultConfig returns the qualification defaults: five-minute steps and
// astronomical-ish darkness at -12 degrees.
func DefaultConfig() Config {
	return Config{Resolution: 5 * time.Minute, DarknessThreshold: -12}
}

// Timeline is the set of instants objects are evaluated against. It is built
// once per request and read concurrently afterwards.
type Timeline struct {
	Mode   Mode
	Method string
	Start  time.Time // requested span start (local)
	End    time.Time // requested span end (local)

	// Samples are the evaluated instants: only dark ones in auto mode,
	// every instant of the span in custom mode.
	Samples []Sample
	Windows []Window
}

// HasWindow reports whether there is anything to evaluate.
func (tl *Timeline) HasWindow() bool {
	return len(tl.Windows) > 0 && len(tl.Samples) > 0
}

// Build samples the span implied by mode on date in loc. A failing solar
// source aborts the build.
func Build(ctx context.Context, src SolarSource, obs transform.ObserverPosition, date Date, loc *time.Location, mode Mode, cfg Config) (*Timeline, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch m := mode.(type) {
	case Auto:
		start, end := DaySpan(date, loc)
		signal, err := NewSampler(ctx, src, obs, start, end, cfg.Resolution).Collect()
		if err != nil {
			return nil, fmt.Errorf("sample day %s: %w", date, err)
		}
		det := DetectWindows(signal, cfg.DarknessThreshold)
		tl := &Timeline{
			Mode:    m,
			Method:  MethodAuto,
			Start:   start,
			End:     end,
			Samples: det.Dark,
			Windows: det.Windows,
		}
		if len(det.Windows) == 0 {
			tl.Method = MethodNoWindow
		}
		return tl, nil

	case Custom:
		start, end := CustomSpan(date, m, loc)
		samples, err := NewSampler(ctx, src, obs, start, end, cfg.Resolution).Collect()
		if err != nil {
			return nil, fmt.Errorf("sample %s %s-%s: %w", date, m.Start, m.End, err)
		}
		tl := &Timeline{
			Mode:    m,
			Method:  MethodCustom,
			Start:   start,
			End:     end,
			Samples: samples,
		}
		if len(samples) > 0 {
			tl.Windows = []Window{{
				Start: samples[0].Time,
				End:   samples[len(samples)-1].Time,
				First: 0,
				Last:  len(samples),
			}}
		}
		return tl, nil

	default:
		return nil, fmt.Errorf("unsupported timeline mode %T", mode)
	}
}
