package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/keyscroll/internal/source"
)

// Crossing finds the first sample that crosses cutoff relative to the
// first sample. Samples must be ordered by index.
func Crossing(samples []Sample, cutoff float64) (int, bool) {
	if len(samples) == 0 {
		return -1, false
	}
	startAbove := samples[0].Luma >= cutoff
	for _, s := range samples[1:] {
		if (s.Luma >= cutoff) != startAbove {
			return s.Index, true
		}
	}
	return -1, false
}

// ScanSource measures every frame of src with up to workers goroutines.
// The result is ordered by frame index.
func ScanSource(ctx context.Context, src source.Source, m Measurer, workers int) ([]Sample, error) {
	n := src.FrameCount()
	samples := make([]Sample, n)

	g, ctx := errgroup.WithContext(ctx)
	if workers <= 0 || workers > n {
		workers = max(1, n)
	}
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			img, err := src.LoadFrame(ctx, i)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			samples[i] = Sample{Index: i, Luma: m.Measure(img)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
