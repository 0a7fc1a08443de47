package utils

import (
	"math"
	"time"
)

// Grid describes a north-up target raster grid. BBox is
// [xMin, yMin, xMax, yMax] in map units, row 0 sits at yMax.
type Grid struct {
	Width, Height int
	BBox          []float64
	CRS           string
}

func (g Grid) XRes() float64 {
	return (g.BBox[2] - g.BBox[0]) / float64(g.Width)
}

func (g Grid) YRes() float64 {
	return (g.BBox[3] - g.BBox[1]) / float64(g.Height)
}

// PixelCenter returns the map coordinates of the center of pixel (x, y).
func (g Grid) PixelCenter(x, y int) (float64, float64) {
	cx := g.BBox[0] + (float64(x)+0.5)*g.XRes()
	cy := g.BBox[3] - (float64(y)+0.5)*g.YRes()
	return cx, cy
}

// PixelAt maps the coordinates (cx, cy) to pixel indices on the grid. The
// bool result reports whether the location falls inside the grid.
func (g Grid) PixelAt(cx, cy float64) (int, int, bool) {
	x := int(math.Floor((cx - g.BBox[0]) / g.XRes()))
	y := int(math.Floor((g.BBox[3] - cy) / g.YRes()))
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, 0, false
	}
	return x, y, true
}

// Float32Raster is a single-band float32 pixel block on some grid. Missing
// samples carry NaN regardless of the source product's no-data convention.
type Float32Raster struct {
	Data          []float32
	Height, Width int
	NameSpace     string
}

func NewFloat32Raster(width, height int, nameSpace string) *Float32Raster {
	data := make([]float32, width*height)
	nan := float32(math.NaN())
	for i := range data {
		data[i] = nan
	}
	return &Float32Raster{Data: data, Width: width, Height: height, NameSpace: nameSpace}
}

// Product is an input raster acquisition as handed over by the raster source
// collaborator: a grid, one or more named bands and an observation timestamp.
// The core only borrows products for the duration of the daily aggregation.
type Product struct {
	Name      string
	Grid      Grid
	Bands     map[string][]float32
	NoData    float64
	TimeStamp time.Time
}

// Band returns the raw samples of the named band, or nil if the product does
// not carry it.
func (p *Product) Band(name string) []float32 {
	if p.Bands == nil {
		return nil
	}
	return p.Bands[name]
}

// BandValue reads one sample, translating the product's no-data value to NaN.
func (p *Product) BandValue(band []float32, idx int) float32 {
	v := band[idx]
	if float64(v) == p.NoData {
		return float32(math.NaN())
	}
	return v
}
