package qualify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/star/skywatch/internal/visibility"
)

// chunkResult is what one worker returns for one chunk.
type chunkResult struct {
	index    int
	outcomes []visibility.Outcome
}

// Pool evaluates chunks of candidates on a fixed number of goroutines.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: logger}
}

// Run evaluates every chunk and returns the outcomes indexed like chunks.
// Objects within a chunk are evaluated in order on one goroutine; a panic in
// one object is reported as that object's outcome and never reaches its
// siblings. Objects not reached before ctx is cancelled are reported as
// unevaluated.
func (p *Pool) Run(ctx context.Context, cl *visibility.Classifier, chunks [][]visibility.Candidate) [][]visibility.Outcome {
	out := make([][]visibility.Outcome, len(chunks))
	if len(chunks) == 0 {
		return out
	}

	jobs := make(chan int, p.workers*2)
	results := make(chan chunkResult, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- chunkResult{index: idx, outcomes: evaluateChunk(ctx, cl, chunks[idx])}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range chunks {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.index] = r.outcomes
	}

	for i, chunk := range chunks {
		if out[i] == nil {
			out[i] = unevaluated(chunk)
			p.logger.Debug("chunk not dispatched", "chunk", i, "objects", len(chunk))
		}
	}
	return out
}

func evaluateChunk(ctx context.Context, cl *visibility.Classifier, chunk []visibility.Candidate) []visibility.Outcome {
	outs := make([]visibility.Outcome, 0, len(chunk))
	for i, cand := range chunk {
		if ctx.Err() != nil {
			return append(outs, unevaluated(chunk[i:])...)
		}
		outs = append(outs, cl.EvaluateSafe(cand))
	}
	return outs
}

func unevaluated(chunk []visibility.Candidate) []visibility.Outcome {
	outs := make([]visibility.Outcome, len(chunk))
	for i, c := range chunk {
		outs[i] = visibility.Skipped(c.Object, visibility.SkipUnevaluated, nil)
	}
	return outs
}

// Chunk splits candidates into consecutive groups of at most size.
func Chunk(cands []visibility.Candidate, size int) [][]visibility.Candidate {
	if size < 1 {
		size = 1
	}
	var out [][]visibility.Candidate
	for start := 0; start < len(cands); start += size {
		end := min(start+size, len(cands))
		out = append(out, cands[start:end:end])
	}
	return out
}
