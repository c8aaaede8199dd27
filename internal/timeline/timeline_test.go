package timeline

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/skywatch/internal/transform"
)

type solarFunc func(t time.Time) (float64, error)

func (f solarFunc) SolarElevation(_ transform.ObserverPosition, t time.Time) (float64, error) {
	return f(t)
}

func constantSun(el float64) solarFunc {
	return func(time.Time) (float64, error) { return el, nil }
}

// nightBetween is dark before dawn and after dusk (local hours).
func nightBetween(dusk, dawn int) solarFunc {
	return func(t time.Time) (float64, error) {
		h := t.Hour()
		if h >= dusk || h < dawn {
			return -30, nil
		}
		return 20, nil
	}
}

var bangkok = transform.NewObserverPosition(13.75, 100.50, 0)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("23:05")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 23, Minute: 5}, c)
	assert.Equal(t, "23:05", c.String())

	for _, bad := range []string{"", "25:00", "7pm", "12:60"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 9}, d)
	assert.Equal(t, "2024-03-09", d.String())

	_, err = ParseDate("09/03/2024")
	assert.Error(t, err)
}

func TestNormalizeSpan(t *testing.T) {
	loc := time.UTC
	d := Date{2024, time.January, 15}

	start, end := NormalizeSpan(d.At(Clock{23, 0}, loc), d.At(Clock{1, 0}, loc))
	assert.Equal(t, time.Date(2024, 1, 15, 23, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 1, 16, 1, 0, 0, 0, loc), end)

	// Equal clocks cover a full day.
	start, end = NormalizeSpan(d.At(Clock{20, 0}, loc), d.At(Clock{20, 0}, loc))
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	// Already ordered spans are untouched.
	start, end = NormalizeSpan(d.At(Clock{18, 0}, loc), d.At(Clock{22, 0}, loc))
	assert.Equal(t, 4*time.Hour, end.Sub(start))
}

func TestSamplerInclusiveEndpoints(t *testing.T) {
	calls := 0
	src := solarFunc(func(time.Time) (float64, error) {
		calls++
		return -20, nil
	})

	d := Date{2024, time.January, 15}
	start, end := CustomSpan(d, Custom{Start: Clock{23, 0}, End: Clock{1, 0}}, time.UTC)

	samples, err := NewSampler(context.Background(), src, bangkok, start, end, 5*time.Minute).Collect()
	require.NoError(t, err)
	require.Len(t, samples, 25)
	assert.Equal(t, 25, calls, "one solar query per sample")
	assert.Equal(t, start, samples[0].Time)
	assert.Equal(t, end, samples[24].Time)
	for i := 1; i < len(samples); i++ {
		assert.Equal(t, 5*time.Minute, samples[i].Time.Sub(samples[i-1].Time))
	}
}

func TestSamplerSourceFailure(t *testing.T) {
	boom := errors.New("ephemeris offline")
	n := 0
	src := solarFunc(func(time.Time) (float64, error) {
		n++
		if n == 3 {
			return 0, boom
		}
		return -20, nil
	})

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	s := NewSampler(context.Background(), src, bangkok, start, start.Add(time.Hour), time.Minute)
	got := 0
	for s.Next() {
		got++
	}
	assert.Equal(t, 2, got)
	assert.ErrorIs(t, s.Err(), boom)
	assert.False(t, s.Next(), "sampler stays exhausted")
}

func TestSamplerRejectsBadSpan(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := NewSampler(context.Background(), constantSun(0), bangkok, start, start.Add(time.Hour), 0).Collect()
	assert.ErrorIs(t, err, ErrSpan)

	_, err = NewSampler(context.Background(), constantSun(0), bangkok, start, start.Add(-time.Hour), time.Minute).Collect()
	assert.ErrorIs(t, err, ErrSpan)
}

func TestSamplerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := NewSampler(ctx, constantSun(-20), bangkok, start, start.Add(time.Hour), time.Minute).Collect()
	assert.ErrorIs(t, err, context.Canceled)
}

func signalOf(els ...float64) []Sample {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]Sample, len(els))
	for i, el := range els {
		out[i] = Sample{Time: base.Add(time.Duration(i) * time.Minute), SunElevation: el}
	}
	return out
}

func TestDetectWindowsAllDark(t *testing.T) {
	sig := signalOf(-20, -30, -15, -12)
	det := DetectWindows(sig, -12)

	require.Len(t, det.Windows, 1)
	w := det.Windows[0]
	assert.Equal(t, sig[0].Time, w.Start)
	assert.Equal(t, sig[3].Time, w.End, "trailing window closes at the final instant")
	assert.Equal(t, 0, w.First)
	assert.Equal(t, 4, w.Last)
	assert.Len(t, det.Dark, 4)
}

func TestDetectWindowsAllLight(t *testing.T) {
	det := DetectWindows(signalOf(10, 0, -11.9), -12)
	assert.Empty(t, det.Windows)
	assert.Empty(t, det.Dark)
}

func TestDetectWindowsEdges(t *testing.T) {
	sig := signalOf(-20, -20, 5, 5, -15, 3, -13, -14)
	det := DetectWindows(sig, -12)

	require.Len(t, det.Windows, 3)
	assert.Equal(t, Window{Start: sig[0].Time, End: sig[2].Time, First: 0, Last: 2}, det.Windows[0])
	assert.Equal(t, Window{Start: sig[4].Time, End: sig[5].Time, First: 4, Last: 5}, det.Windows[1])
	assert.Equal(t, Window{Start: sig[6].Time, End: sig[7].Time, First: 6, Last: 8}, det.Windows[2])

	// The union of window ranges is exactly the dark samples.
	inWindow := make(map[int]bool)
	total := 0
	for _, w := range det.Windows {
		for i := w.First; i < w.Last; i++ {
			inWindow[i] = true
		}
		total += w.Len()
	}
	for i, s := range sig {
		assert.Equal(t, IsDark(s.SunElevation, -12), inWindow[i], "sample %d", i)
	}
	assert.Equal(t, len(det.Dark), total)

	// Windows are ordered and disjoint.
	for i := 1; i < len(det.Windows); i++ {
		assert.True(t, det.Windows[i-1].Last <= det.Windows[i].First)
	}
}

func TestDetectWindowsEmptySignal(t *testing.T) {
	det := DetectWindows(nil, -12)
	assert.Empty(t, det.Windows)
}

func TestBuildAuto(t *testing.T) {
	d := Date{2024, time.January, 15}
	tl, err := Build(context.Background(), nightBetween(19, 6), bangkok, d, time.UTC, Auto{}, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, MethodAuto, tl.Method)
	assert.True(t, tl.HasWindow())
	require.Len(t, tl.Windows, 2)

	// 00:00..05:55 and 19:00..23:55 at five-minute steps.
	assert.Len(t, tl.Samples, 72+60)
	for _, s := range tl.Samples {
		assert.LessOrEqual(t, s.SunElevation, -12.0)
	}
	assert.Equal(t, time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC), tl.Windows[0].End)
	assert.Equal(t, time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC), tl.Windows[1].Start)
	assert.Equal(t, time.Date(2024, 1, 15, 23, 55, 0, 0, time.UTC), tl.Windows[1].End)
}

func TestBuildAutoNoDarkness(t *testing.T) {
	d := Date{2024, time.June, 21}
	tl, err := Build(context.Background(), constantSun(-5), bangkok, d, time.UTC, Auto{}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, MethodNoWindow, tl.Method)
	assert.False(t, tl.HasWindow())
	assert.Empty(t, tl.Samples)
}

func TestBuildCustomKeepsLightSamples(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	d := Date{2024, time.January, 15}
	mode := Custom{Start: Clock{23, 0}, End: Clock{1, 0}}
	tl, err := Build(context.Background(), constantSun(10), bangkok, d, loc, mode, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, MethodCustom, tl.Method)
	require.Len(t, tl.Samples, 25)
	assert.True(t, tl.HasWindow())
	assert.Equal(t, time.Date(2024, 1, 16, 1, 0, 0, 0, loc), tl.Samples[24].Time)
}

func TestBuildPropagatesSolarFailure(t *testing.T) {
	src := solarFunc(func(time.Time) (float64, error) { return 0, errors.New("no sun") })
	_, err := Build(context.Background(), src, bangkok, Date{2024, 1, 15}, time.UTC, Auto{}, DefaultConfig())
	assert.Error(t, err)
}
