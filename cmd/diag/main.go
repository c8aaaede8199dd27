// Command diag evaluates every object in a local 3-line element-set file
// against one observer and prints a per-object visibility summary. With
// -qualify it instead loads the file into an in-memory catalog and runs the
// qualification loop against it, printing the ranked shortlist.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/ephemeris"
	"github.com/star/skywatch/internal/qualify"
	"github.com/star/skywatch/internal/timeline"
	"github.com/star/skywatch/internal/tle"
	"github.com/star/skywatch/internal/transform"
	"github.com/star/skywatch/internal/visibility"
)

func main() {
	file := flag.String("file", "/tmp/skywatch/tle/latest.txt", "3-line element-set file")
	lat := flag.Float64("lat", 39.7392, "observer latitude")
	lon := flag.Float64("lon", -104.9903, "observer longitude")
	alt := flag.Float64("alt", 1609, "observer altitude in metres")
	date := flag.String("date", time.Now().Format(time.DateOnly), "local date YYYY-MM-DD")
	tz := flag.String("tz", "UTC", "IANA timezone")
	limit := flag.Int("limit", 25, "evaluate at most this many objects (0 = all)")
	shortlist := flag.Bool("qualify", false, "run the qualification loop over the whole file")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "catalog sampling seed for -qualify")
	target := flag.Int("target", qualify.DefaultConfig().TargetCount, "shortlist size for -qualify")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}

	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(entries))

	d, err := timeline.ParseDate(*date)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}

	oracle := ephemeris.NewSGP4Oracle()
	obs := transform.NewObserverPosition(*lat, *lon, *alt)
	ctx := context.Background()

	tl, err := timeline.Build(ctx, oracle, obs, d, loc, timeline.Auto{}, timeline.DefaultConfig())
	if err != nil {
		fmt.Println("ERROR building timeline:", err)
		os.Exit(1)
	}
	fmt.Printf("Method: %s, %d samples\n", tl.Method, len(tl.Samples))
	for _, w := range tl.Windows {
		fmt.Printf("  dark window %s to %s\n", w.Start.In(loc).Format(time.RFC3339), w.End.In(loc).Format(time.RFC3339))
	}
	if !tl.HasWindow() {
		return
	}

	if *shortlist {
		if _, err := runQualify(ctx, os.Stdout, oracle, obs, tl, entries, *seed, *target, loc, logger); err != nil {
			fmt.Println("ERROR:", err)
			os.Exit(1)
		}
		return
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}

	cl := visibility.NewClassifier(oracle, obs, tl, visibility.DefaultCriteria())
	var cands []visibility.Candidate
	for _, e := range entries {
		cand, out, ok := visibility.Prepare(oracle, e)
		if !ok {
			fmt.Printf("  %-24s SKIP %s: %v\n", e.Name, out.Skip, out.Err)
			continue
		}
		cands = append(cands, cand)
	}

	start := time.Now()
	chunks := qualify.NewPool(4, logger).Run(ctx, cl, qualify.Chunk(cands, 25))

	visible := 0
	for _, chunk := range chunks {
		for _, out := range chunk {
			if !out.OK() {
				fmt.Printf("  %-24s %s (dropped %d samples)\n", out.Object.Name, out.Skip, out.Dropped)
				continue
			}
			visible++
			r := out.Result
			bp := r.BestPoint
			fmt.Printf("  %-24s %d passes, best %.1f° az %.0f° at %s\n",
				out.Object.Name, r.PassCount(), bp.ElevationDeg, bp.AzimuthDeg, bp.Time.In(loc).Format("15:04"))
		}
	}
	fmt.Printf("\n%d of %d objects visible (%v)\n", visible, len(entries), time.Since(start).Round(time.Millisecond))
}

// runQualify serves the file's valid entries from a MemoryStore and prints the
// qualifier's shortlist.
func runQualify(ctx context.Context, w io.Writer, oracle ephemeris.Oracle, obs transform.ObserverPosition, tl *timeline.Timeline,
	entries []tle.TLEEntry, seed uint64, target int, loc *time.Location, logger *slog.Logger) (*qualify.Report, error) {
	valid, rejected := tle.FilterValid(entries)
	store := catalog.NewMemoryStore(seed, valid...)
	fmt.Fprintf(w, "Catalog: %d valid, %d rejected\n", len(valid), len(rejected))

	cfg := qualify.DefaultConfig()
	cfg.TargetCount = target
	rep, err := qualify.New(store, oracle, cfg, logger).Run(ctx, qualify.Request{
		Observer: obs,
		Timeline: tl,
		Criteria: visibility.DefaultCriteria(),
	})
	if err != nil {
		return nil, err
	}

	for i, r := range rep.Results {
		bp := r.BestPoint
		fmt.Fprintf(w, "  %2d. %-24s %d passes, best %.1f° az %.0f° at %s\n",
			i+1, r.Object.Name, r.PassCount(), bp.ElevationDeg, bp.AzimuthDeg, bp.Time.In(loc).Format("15:04"))
	}
	st := rep.Stats
	fmt.Fprintf(w, "\nstop=%s iterations=%d excluded=%d found=%d skipped=%v (%v)\n",
		st.Stop, st.Iterations, st.Excluded, st.Found, st.Skipped, st.Duration.Round(time.Millisecond))
	return rep, nil
}
