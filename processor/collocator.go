package processor

import (
	"math"

	"github.com/pkg/errors"

	"github.com/eoanalytics/tpstack/utils"
)

// Collocator resamples one band of a source product onto the target grid so
// pixels are spatially comparable across acquisitions. The resampling method
// is an opaque configuration string owned by the implementation.
type Collocator interface {
	Collocate(src *utils.Product, band string, target utils.Grid, resampling string) (*utils.Float32Raster, error)
}

// GridResampler is a pure-Go Collocator for products that share the target
// CRS: it maps target pixel centers through both geo transforms and samples
// the source with nearest-neighbour or bilinear weighting. Reprojection
// across reference systems belongs to an external warp service.
type GridResampler struct{}

func (GridResampler) Collocate(src *utils.Product, band string, target utils.Grid, resampling string) (*utils.Float32Raster, error) {
	data := src.Band(band)
	if data == nil {
		return nil, errors.Errorf("product %s does not carry band %s", src.Name, band)
	}

	out := utils.NewFloat32Raster(target.Width, target.Height, band)

	if sameGrid(src.Grid, target) {
		for i := range data {
			out.Data[i] = src.BandValue(data, i)
		}
		return out, nil
	}

	switch resampling {
	case "", "Nearest":
		resampleNearest(src, data, target, out)
	case "Bilinear":
		resampleBilinear(src, data, target, out)
	default:
		return nil, utils.NewConfigurationError("unknown resampling method '%s', expected Nearest or Bilinear", resampling)
	}
	return out, nil
}

func sameGrid(a, b utils.Grid) bool {
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for i := 0; i < 4; i++ {
		if a.BBox[i] != b.BBox[i] {
			return false
		}
	}
	return true
}

func resampleNearest(src *utils.Product, data []float32, target utils.Grid, out *utils.Float32Raster) {
	for ty := 0; ty < target.Height; ty++ {
		for tx := 0; tx < target.Width; tx++ {
			cx, cy := target.PixelCenter(tx, ty)
			sx, sy, ok := src.Grid.PixelAt(cx, cy)
			if !ok {
				continue
			}
			out.Data[ty*target.Width+tx] = src.BandValue(data, sy*src.Grid.Width+sx)
		}
	}
}

func resampleBilinear(src *utils.Product, data []float32, target utils.Grid, out *utils.Float32Raster) {
	g := src.Grid
	for ty := 0; ty < target.Height; ty++ {
		for tx := 0; tx < target.Width; tx++ {
			cx, cy := target.PixelCenter(tx, ty)
			fx := (cx-g.BBox[0])/g.XRes() - 0.5
			fy := (g.BBox[3]-cy)/g.YRes() - 0.5
			x0 := int(math.Floor(fx))
			y0 := int(math.Floor(fy))
			wx := fx - float64(x0)
			wy := fy - float64(y0)

			var sum, weight float64
			for dy := 0; dy <= 1; dy++ {
				for dx := 0; dx <= 1; dx++ {
					sx, sy := x0+dx, y0+dy
					if sx < 0 || sx >= g.Width || sy < 0 || sy >= g.Height {
						continue
					}
					v := src.BandValue(data, sy*g.Width+sx)
					if math.IsNaN(float64(v)) {
						continue
					}
					w := (1 - math.Abs(float64(dx)-wx)) * (1 - math.Abs(float64(dy)-wy))
					sum += float64(v) * w
					weight += w
				}
			}
			if weight > 0 {
				out.Data[ty*target.Width+tx] = float32(sum / weight)
			}
		}
	}
}
