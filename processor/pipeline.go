package processor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eoanalytics/tpstack/store"
	"github.com/eoanalytics/tpstack/timeseries"
	"github.com/eoanalytics/tpstack/utils"
)

const timeSeriesDirSuffix = "_percentile_timeseries"

// PercentilePipeline runs the whole computation: group products by day,
// build the time axis, aggregate one mean band per day into the
// intermediate store, hand the store over to its reader role, then drive
// the tile loop that writes one threshold band per requested rank.
type PercentilePipeline struct {
	Config     *utils.Config
	Collocator Collocator
	Log        *zap.Logger
}

func InitPercentilePipeline(config *utils.Config, collocator Collocator, log *zap.Logger) *PercentilePipeline {
	return &PercentilePipeline{
		Config:     config,
		Collocator: collocator,
		Log:        log,
	}
}

// Run executes the pipeline over the supplied source products. Returns the
// first fatal error; on a nil return the output store holds one complete
// band per requested percentile rank.
func (pp *PercentilePipeline) Run(ctx context.Context, products []*utils.Product) error {
	cfg := pp.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	method, err := ParseFillMethod(cfg.GapFillMethod)
	if err != nil {
		return err
	}
	startDate, err := cfg.ParsedStartDate()
	if err != nil {
		return err
	}
	endDate, err := cfg.ParsedEndDate()
	if err != nil {
		return err
	}

	products = timeseries.FilterPeriod(products, startDate, endDate)
	groups, err := timeseries.GroupDaily(products)
	if err != nil {
		return err
	}
	axis, err := timeseries.BuildAxis(groups, startDate, endDate)
	if err != nil {
		return err
	}

	grid := cfg.TargetGrid()
	prefix := cfg.BandNamePrefix()

	var bandExpr, validExpr *utils.BandExpressions
	if cfg.BandMathsExpression != "" {
		if bandExpr, err = utils.ParseBandExpressions([]string{cfg.BandMathsExpression}); err != nil {
			return utils.NewConfigurationError("invalid band_maths_expression: %v", err)
		}
	}
	if cfg.ValidPixelExpression != "" {
		if validExpr, err = utils.ParseBandExpressions([]string{cfg.ValidPixelExpression}); err != nil {
			return utils.NewConfigurationError("invalid valid_pixel_expression: %v", err)
		}
	}

	pp.Log.Info("time series axis constructed",
		zap.Int64("start_mjd", axis.StartMJD), zap.Int64("end_mjd", axis.EndMJD),
		zap.Int("length", axis.Length), zap.Int("days_with_data", groups.Len()))

	tsDir := pp.timeSeriesDir(axis, prefix)
	tsStore, err := store.Create(tsDir, grid.Width, grid.Height)
	if err != nil {
		return err
	}
	dayBandNames := axis.MeanBandNames(prefix)
	for _, name := range dayBandNames {
		if err := tsStore.CreateBand(name); err != nil {
			return err
		}
	}

	aggregator := &MeanAggregator{
		Store:          tsStore,
		Collocator:     pp.Collocator,
		Axis:           axis,
		TargetGrid:     grid,
		Prefix:         prefix,
		SourceBandName: cfg.SourceBandName,
		BandExpr:       bandExpr,
		ValidExpr:      validExpr,
		Resampling:     cfg.Resampling,
		Limiter:        NewConcLimiter(cfg.Concurrency),
		Log:            pp.Log,
	}
	if err := aggregator.Run(groups); err != nil {
		tsStore.Close()
		return err
	}

	// Writer to reader hand-off: flush everything and reopen read-only
	// before the first tile is touched.
	tsReader, err := tsStore.Finalize()
	if err != nil {
		return err
	}
	defer tsReader.Close()

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = prefix + "_percentile"
	}
	output, err := store.Create(outDir, grid.Width, grid.Height)
	if err != nil {
		return err
	}
	rankBandNames := make([]string, len(cfg.Percentiles))
	created := make(map[string]struct{})
	for i, rank := range cfg.Percentiles {
		name := ThresholdBandName(prefix, rank)
		rankBandNames[i] = name
		if _, ok := created[name]; ok {
			continue
		}
		created[name] = struct{}{}
		if err := output.CreateBand(name); err != nil {
			return err
		}
	}

	driver := &TileDriver{
		TimeSeries:    tsReader,
		Output:        output,
		Axis:          axis,
		DayBandNames:  dayBandNames,
		Ranks:         cfg.Percentiles,
		RankBandNames: rankBandNames,
		Method:        method,
		StartFallback: fallbackValue(cfg.StartValueFallback),
		EndFallback:   fallbackValue(cfg.EndValueFallback),
		NoData:        float32(math.NaN()),
		Concurrency:   cfg.Concurrency,
		Log:           pp.Log,
	}
	tiles := SplitTiles(grid.Width, grid.Height, cfg.TileSize)
	if err := driver.Run(ctx, tiles); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}

	if !cfg.KeepIntermediate {
		tsReader.Close()
		if err := os.RemoveAll(tsDir); err != nil {
			return utils.NewIOFailure("removing intermediate time series store", err)
		}
	}

	pp.Log.Info("percentile computation finished",
		zap.Int("tiles", len(tiles)), zap.Strings("bands", rankBandNames),
		zap.String("output", outDir))
	return nil
}

// timeSeriesDir names the intermediate store after the period start year and
// the band prefix.
func (pp *PercentilePipeline) timeSeriesDir(axis *timeseries.Axis, prefix string) string {
	year := timeseries.MJDToTime(axis.StartMJD).Year()
	name := fmt.Sprintf("%d_%s%s", year, prefix, timeSeriesDirSuffix)
	if pp.Config.TimeSeriesDir != "" {
		return filepath.Join(pp.Config.TimeSeriesDir, name)
	}
	return name
}

// fallbackValue maps an unset fallback to NaN: the corresponding end slot
// then stays missing and an all-missing pixel becomes no-data output.
func fallbackValue(v *float64) float32 {
	if v == nil {
		return float32(math.NaN())
	}
	return float32(*v)
}
