package processor

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eoanalytics/tpstack/store"
	"github.com/eoanalytics/tpstack/timeseries"
)

// TileDriver walks the output grid tile by tile. Each tile passes through
// load (one region read per day band), compute (gap fill + thresholds per
// pixel) and write (one region write per rank band); its buffers are
// released before the next tile starts. Tiles are independent and run on a
// bounded worker group over the read-only time-series store.
type TileDriver struct {
	TimeSeries   *store.ReadHandle
	Output       *store.WriteHandle
	Axis         *timeseries.Axis
	DayBandNames []string

	Ranks         []int
	RankBandNames []string

	Method        FillMethod
	StartFallback float32
	EndFallback   float32
	NoData        float32

	Concurrency int
	Log         *zap.Logger
}

// Run processes all tiles. The first fatal error cancels the group, the
// in-flight tiles drain, and that error aborts the run; partial output of an
// aborted run is invalid.
func (td *TileDriver) Run(ctx context.Context, tiles []TileRect) error {
	g, ctx := errgroup.WithContext(ctx)
	concurrency := td.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for _, tile := range tiles {
		tile := tile
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return td.processTile(tile)
		})
	}
	return g.Wait()
}

func (td *TileDriver) processTile(tile TileRect) error {
	slabs := make([][]float32, td.Axis.Length)
	for i, name := range td.DayBandNames {
		slab, err := td.TimeSeries.ReadRegion(name, tile.OffX, tile.OffY, tile.Width, tile.Height)
		if err != nil {
			return err
		}
		slabs[i] = slab
	}

	out := make([][]float32, len(td.Ranks))
	for r := range out {
		out[r] = make([]float32, tile.Width*tile.Height)
	}

	vec := make([]float32, td.Axis.Length)
	skipped := 0
	for idx := 0; idx < tile.Width*tile.Height; idx++ {
		for d := range slabs {
			vec[d] = slabs[d][idx]
		}
		err := FillGaps(vec, td.Method, td.StartFallback, td.EndFallback)
		if err == ErrNoValidSamples {
			for r := range out {
				out[r][idx] = td.NoData
			}
			skipped++
			continue
		}
		if err != nil {
			return err
		}
		thresholds := ComputeThresholds(td.Ranks, vec)
		for r, t := range thresholds {
			out[r][idx] = t
		}
	}

	for r, name := range td.RankBandNames {
		if err := td.Output.WriteRegion(name, tile.OffX, tile.OffY, tile.Width, tile.Height, out[r]); err != nil {
			return err
		}
	}

	td.Log.Debug("tile processed",
		zap.Int("off_x", tile.OffX), zap.Int("off_y", tile.OffY),
		zap.Int("width", tile.Width), zap.Int("height", tile.Height),
		zap.Int("skipped_pixels", skipped))
	return nil
}
