package processor

import (
	"math"

	"go.uber.org/zap"

	"github.com/eoanalytics/tpstack/store"
	"github.com/eoanalytics/tpstack/timeseries"
	"github.com/eoanalytics/tpstack/utils"
)

// MeanAggregator reduces each acquisition day to a single collocated mean
// band and persists it into the intermediate time-series store at the day's
// axis offset. Days are processed strictly one after another; only the
// collocations within one day fan out, so peak memory stays bounded by one
// day's worth of collocated rasters.
type MeanAggregator struct {
	Store      *store.WriteHandle
	Collocator Collocator
	Axis       *timeseries.Axis
	TargetGrid utils.Grid

	Prefix         string
	SourceBandName string
	BandExpr       *utils.BandExpressions
	ValidExpr      *utils.BandExpressions
	Resampling     string

	Limiter *ConcLimiter
	Log     *zap.Logger
}

// Run aggregates every day of the grouping. Persisting a band is all or
// nothing: the first failure aborts the whole run.
func (ma *MeanAggregator) Run(groups *timeseries.DailyGroups) error {
	for _, mjd := range groups.Days() {
		if !ma.Axis.Contains(mjd) {
			continue
		}
		products := groups.Products(mjd)
		names := make([]string, len(products))
		for i, p := range products {
			names[i] = p.Name
		}
		ma.Log.Info("computing collocated mean band",
			zap.Int64("mjd", mjd), zap.Strings("products", names))
		if err := ma.aggregateDay(mjd, products); err != nil {
			return err
		}
	}
	return nil
}

func (ma *MeanAggregator) aggregateDay(mjd int64, products []*utils.Product) error {
	size := ma.TargetGrid.Width * ma.TargetGrid.Height
	values := make([][]float32, len(products))
	errs := make([]error, len(products))

	for i, p := range products {
		ma.Limiter.Increase()
		go func(i int, p *utils.Product) {
			defer ma.Limiter.Decrease()
			values[i], errs[i] = ma.inputValues(p)
		}(i, p)
	}
	ma.Limiter.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	sum := make([]float64, size)
	cnt := make([]int32, size)
	for _, vals := range values {
		for i, v := range vals {
			if !isMissing(v) {
				sum[i] += float64(v)
				cnt[i]++
			}
		}
	}

	mean := make([]float32, size)
	nan := float32(math.NaN())
	for i := range mean {
		if cnt[i] > 0 {
			mean[i] = float32(sum[i] / float64(cnt[i]))
		} else {
			mean[i] = nan
		}
	}

	name := timeseries.MeanBandName(ma.Prefix, mjd)
	return ma.Store.WriteRegion(name, 0, 0, ma.TargetGrid.Width, ma.TargetGrid.Height, mean)
}

// inputValues collocates one product onto the target grid and evaluates its
// per-pixel input value: the source band, or the band-maths expression over
// the collocated bands, masked by the valid-pixel predicate.
func (ma *MeanAggregator) inputValues(p *utils.Product) ([]float32, error) {
	needed := ma.neededBands()
	collocated := make(map[string]*utils.Float32Raster, len(needed))
	for _, band := range needed {
		r, err := ma.Collocator.Collocate(p, band, ma.TargetGrid, ma.Resampling)
		if err != nil {
			return nil, utils.NewIOFailure("collocating "+p.Name, err)
		}
		collocated[band] = r
	}

	size := ma.TargetGrid.Width * ma.TargetGrid.Height
	out := make([]float32, size)
	nan := float32(math.NaN())
	parameters := make(map[string]interface{}, len(needed))

	for i := 0; i < size; i++ {
		missing := false
		for _, band := range needed {
			v := collocated[band].Data[i]
			if isMissing(v) {
				missing = true
				break
			}
			parameters[band] = float64(v)
		}
		if missing {
			out[i] = nan
			continue
		}

		if ma.ValidExpr != nil {
			valid, err := ma.ValidExpr.EvaluateBool(0, parameters)
			if err != nil {
				return nil, err
			}
			if !valid {
				out[i] = nan
				continue
			}
		}

		if ma.BandExpr != nil {
			v, err := ma.BandExpr.EvaluateFloat32(0, parameters)
			if err != nil {
				return nil, err
			}
			out[i] = v
		} else {
			out[i] = collocated[ma.SourceBandName].Data[i]
		}
	}
	return out, nil
}

// neededBands is the union of the bands the input value and the valid-pixel
// predicate reference.
func (ma *MeanAggregator) neededBands() []string {
	seen := make(map[string]struct{})
	var bands []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		bands = append(bands, name)
	}
	if ma.BandExpr != nil {
		for _, v := range ma.BandExpr.VarList {
			add(v)
		}
	} else {
		add(ma.SourceBandName)
	}
	if ma.ValidExpr != nil {
		for _, v := range ma.ValidExpr.VarList {
			add(v)
		}
	}
	return bands
}
