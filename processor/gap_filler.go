package processor

import (
	"errors"
	"math"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/eoanalytics/tpstack/utils"
)

// FillMethod selects the interpolation strategy used to close gaps in a
// pixel time series.
type FillMethod int

const (
	FillLinear FillMethod = iota
	FillQuadratic
	FillSpline
)

// ErrNoValidSamples reports a pixel time series without a single valid
// sample even after fallback substitution. The pixel is skipped, not fatal.
var ErrNoValidSamples = errors.New("pixel time series holds no valid sample")

func ParseFillMethod(s string) (FillMethod, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return FillLinear, nil
	case "quadratic":
		return FillQuadratic, nil
	case "spline":
		return FillSpline, nil
	default:
		return 0, utils.NewConfigurationError("unknown gap fill method '%s', expected linear, quadratic or spline", s)
	}
}

func (m FillMethod) String() string {
	switch m {
	case FillQuadratic:
		return "quadratic"
	case FillSpline:
		return "spline"
	default:
		return "linear"
	}
}

func isMissing(v float32) bool {
	return math.IsNaN(float64(v))
}

// FillGaps closes the missing entries of a pixel time series in place.
// A missing first or last slot is seeded with the respective fallback value
// before interpolation, so interior gaps are always bounded by known samples
// when the fallbacks are set. Deterministic for identical inputs. After a
// nil return every slot holds a finite value.
func FillGaps(v []float32, method FillMethod, startFallback, endFallback float32) error {
	n := len(v)
	if n == 0 {
		return ErrNoValidSamples
	}
	if isMissing(v[0]) {
		v[0] = startFallback
	}
	if isMissing(v[n-1]) {
		v[n-1] = endFallback
	}

	known := make([]int, 0, n)
	for i, s := range v {
		if !isMissing(s) {
			known = append(known, i)
		}
	}
	switch len(known) {
	case 0:
		return ErrNoValidSamples
	case n:
		return nil
	case 1:
		c := v[known[0]]
		for i := range v {
			v[i] = c
		}
		return nil
	}

	switch method {
	case FillQuadratic:
		fillQuadratic(v, known)
	case FillSpline:
		fillSpline(v, known)
	default:
		fillLinear(v, known)
	}
	fillEdges(v, known)
	return nil
}

// fillEdges closes leading and trailing runs, which only exist when a
// fallback was left unset. Nearest-known extrapolation keeps them finite.
func fillEdges(v []float32, known []int) {
	first, last := known[0], known[len(known)-1]
	for i := 0; i < first; i++ {
		v[i] = v[first]
	}
	for i := last + 1; i < len(v); i++ {
		v[i] = v[last]
	}
}

func fillLinear(v []float32, known []int) {
	for m := 0; m < len(known)-1; m++ {
		i, j := known[m], known[m+1]
		if j == i+1 {
			continue
		}
		a, b := float64(v[i]), float64(v[j])
		for k := i + 1; k < j; k++ {
			v[k] = float32(a + (b-a)*float64(k-i)/float64(j-i))
		}
	}
}

// fillQuadratic fits a second-degree polynomial through the nearest three
// known samples straddling each run. With only two known samples in total
// the run degrades to linear interpolation.
func fillQuadratic(v []float32, known []int) {
	for m := 0; m < len(known)-1; m++ {
		i, j := known[m], known[m+1]
		if j == i+1 {
			continue
		}
		third := -1
		switch {
		case m > 0 && m+2 < len(known):
			// pick whichever extra sample sits closer to the run
			if known[m]-known[m-1] < known[m+2]-known[m+1] {
				third = known[m-1]
			} else {
				third = known[m+2]
			}
		case m > 0:
			third = known[m-1]
		case m+2 < len(known):
			third = known[m+2]
		}
		if third < 0 {
			a, b := float64(v[i]), float64(v[j])
			for k := i + 1; k < j; k++ {
				v[k] = float32(a + (b-a)*float64(k-i)/float64(j-i))
			}
			continue
		}
		x0, x1, x2 := float64(i), float64(j), float64(third)
		y0, y1, y2 := float64(v[i]), float64(v[j]), float64(v[third])
		for k := i + 1; k < j; k++ {
			x := float64(k)
			l0 := (x - x1) * (x - x2) / ((x0 - x1) * (x0 - x2))
			l1 := (x - x0) * (x - x2) / ((x1 - x0) * (x1 - x2))
			l2 := (x - x0) * (x - x1) / ((x2 - x0) * (x2 - x1))
			v[k] = float32(y0*l0 + y1*l1 + y2*l2)
		}
	}
}

// fillSpline fits one natural cubic spline through all known samples of the
// vector and evaluates it at every interior missing offset.
func fillSpline(v []float32, known []int) {
	xs := make([]float64, len(known))
	ys := make([]float64, len(known))
	for i, k := range known {
		xs[i] = float64(k)
		ys[i] = float64(v[k])
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		fillLinear(v, known)
		return
	}
	first, last := known[0], known[len(known)-1]
	for i := first + 1; i < last; i++ {
		if isMissing(v[i]) {
			v[i] = float32(nc.Predict(float64(i)))
		}
	}
}
