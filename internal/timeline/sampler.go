package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/star/skywatch/internal/transform"
)

// ErrSpan is returned for a span that runs backwards or a non-positive step.
var ErrSpan = errors.New("invalid sampling span")

// Sample is one instant of the observation timeline together with the Sun's
// elevation there. Samples are shared read-only by every evaluation worker.
type Sample struct {
	Time         time.Time
	SunElevation float64 // degrees
}

// SolarSource reports the Sun's elevation for an observer.
type SolarSource interface {
	SolarElevation(obs transform.ObserverPosition, t time.Time) (float64, error)
}

// Sampler walks [start, end] inclusive at a fixed step, asking the solar
// source once per instant. Like bufio.Scanner it is consumed by calling Next
// until it returns false and then checking Err; it cannot be restarted.
type Sampler struct {
	ctx  context.Context
	src  SolarSource
	obs  transform.ObserverPosition
	next time.Time
	end  time.Time
	step time.Duration

	cur  Sample
	err  error
	done bool
}

// NewSampler creates a Sampler. The span must already be normalized: an end
// before start is reported through Err rather than silently fixed.
func NewSampler(ctx context.Context, src SolarSource, obs transform.ObserverPosition, start, end time.Time, step time.Duration) *Sampler {
	s := &Sampler{ctx: ctx, src: src, obs: obs, next: start, end: end, step: step}
	switch {
	case step <= 0:
		s.err = fmt.Errorf("%w: step %v must be positive", ErrSpan, step)
		s.done = true
	case end.Before(start):
		s.err = fmt.Errorf("%w: end %s before start %s", ErrSpan, end.Format(time.RFC3339), start.Format(time.RFC3339))
		s.done = true
	}
	return s
}

// Next advances to the next instant. It returns false once the span is
// exhausted or an error occurred.
func (s *Sampler) Next() bool {
	if s.done {
		return false
	}
	if s.next.After(s.end) {
		s.done = true
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		s.done = true
		return false
	}

	el, err := s.src.SolarElevation(s.obs, s.next)
	if err != nil {
		s.err = fmt.Errorf("solar elevation at %s: %w", s.next.UTC().Format(time.RFC3339), err)
		s.done = true
		return false
	}

	s.cur = Sample{Time: s.next, SunElevation: el}
	s.next = s.next.Add(s.step)
	return true
}

// Sample returns the instant produced by the last successful Next.
func (s *Sampler) Sample() Sample {
	return s.cur
}

// Err returns the first error encountered, if any.
func (s *Sampler) Err() error {
	return s.err
}

// Collect drains the sampler into a slice.
func (s *Sampler) Collect() ([]Sample, error) {
	var out []Sample
	for s.Next() {
		out = append(out, s.Sample())
	}
	return out, s.Err()
}
