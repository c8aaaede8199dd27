package visibility

import (
	"fmt"

	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/tle"
)

// SkipReason says why an object produced no result.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipMalformed   SkipReason = "malformed_tle"
	SkipPropagator  SkipReason = "propagator_init"
	SkipNotVisible  SkipReason = "not_visible"
	SkipPanic       SkipReason = "panic"
	SkipNoSamples   SkipReason = "no_samples"
	SkipUnevaluated SkipReason = "unevaluated"
)

// SkipReasons lists every reason an object can be skipped, for metrics.
var SkipReasons = []SkipReason{SkipMalformed, SkipPropagator, SkipNotVisible, SkipPanic, SkipNoSamples, SkipUnevaluated}

// Outcome is the per-object result: either Result is set, or Skip says why
// not. Err carries the underlying failure for malformed, propagator and
// panic skips.
type Outcome struct {
	Object  tle.TLEEntry
	Result  *passes.Result
	Skip    SkipReason
	Err     error
	Dropped int // samples the oracle failed on
}

// OK reports whether the object produced a result.
func (o Outcome) OK() bool {
	return o.Result != nil
}

// Skipped builds a skip outcome.
func Skipped(obj tle.TLEEntry, reason SkipReason, err error) Outcome {
	return Outcome{Object: obj, Skip: reason, Err: err}
}

// Candidate is an object whose element set has been validated and turned into
// a propagation handle.
type Candidate struct {
	Object     tle.TLEEntry
	Propagator ephemeris.Propagator
}

// Prepare validates an object's element set and constructs its propagator.
func Prepare(oracle ephemeris.Oracle, obj tle.TLEEntry) (Candidate, Outcome, bool) {
	if err := tle.ValidateLines(obj.Line1, obj.Line2); err != nil {
		return Candidate{}, Skipped(obj, SkipMalformed, err), false
	}
	p, err := oracle.NewPropagator(obj.Line1, obj.Line2, obj.ID)
	if err != nil {
		return Candidate{}, Skipped(obj, SkipPropagator, err), false
	}
	return Candidate{Object: obj, Propagator: p}, Outcome{}, true
}

// Evaluate classifies a candidate over the timeline and segments its passes.
func (c *Classifier) Evaluate(cand Candidate) Outcome {
	points, dropped := c.Classify(cand.Propagator)
	out := Outcome{Object: cand.Object, Dropped: dropped}

	if dropped == len(points) {
		out.Skip = SkipNoSamples
		return out
	}
	if out.Result = passes.NewResult(cand.Object, points); out.Result == nil {
		out.Skip = SkipNotVisible
	}
	return out
}

// EvaluateSafe is Evaluate with a recovered panic reported as SkipPanic.
func (c *Classifier) EvaluateSafe(cand Candidate) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Skipped(cand.Object, SkipPanic, fmt.Errorf("panic evaluating %s: %v", cand.Object.ID, r))
		}
	}()
	return c.Evaluate(cand)
}
