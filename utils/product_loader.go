package utils

import (
	"encoding/binary"
	"io/ioutil"
	"math"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// LoadProducts reads the flat-file source products listed in the run
// configuration. Each file holds the product's bands back to back as
// little-endian float32, row-major. This reader is the in-repo stand-in for
// the raster source collaborator; real format decoding lives outside.
func LoadProducts(files []ProductFile) ([]*Product, error) {
	products := make([]*Product, 0, len(files))
	for _, pf := range files {
		p, err := loadProduct(pf)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func loadProduct(pf ProductFile) (*Product, error) {
	if pf.Width <= 0 || pf.Height <= 0 {
		return nil, NewConfigurationError("product %s has invalid dimensions %dx%d", pf.Path, pf.Width, pf.Height)
	}
	if len(pf.BBox) != 4 {
		return nil, NewConfigurationError("product %s needs a bbox of [xmin, ymin, xmax, ymax]", pf.Path)
	}
	if len(pf.Bands) == 0 {
		return nil, NewConfigurationError("product %s lists no bands", pf.Path)
	}
	ts, err := time.ParseInLocation(DateTimePattern, pf.TimeStamp, time.UTC)
	if err != nil {
		return nil, NewConfigurationError("product %s has malformed timestamp '%s'", pf.Path, pf.TimeStamp)
	}

	raw, err := ioutil.ReadFile(pf.Path)
	if err != nil {
		return nil, NewIOFailure("reading source product", err)
	}
	bandSize := pf.Width * pf.Height
	want := bandSize * len(pf.Bands) * 4
	if len(raw) != want {
		return nil, NewIOFailure("reading source product",
			errors.Errorf("%s holds %d bytes, expected %d for %d bands of %dx%d float32",
				pf.Path, len(raw), want, len(pf.Bands), pf.Width, pf.Height))
	}

	bands := make(map[string][]float32, len(pf.Bands))
	for bi, name := range pf.Bands {
		data := make([]float32, bandSize)
		base := bi * bandSize * 4
		for i := 0; i < bandSize; i++ {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[base+i*4:]))
		}
		bands[name] = data
	}

	name := filepath.Base(pf.Path)
	return &Product{
		Name: name,
		Grid: Grid{
			Width:  pf.Width,
			Height: pf.Height,
			BBox:   pf.BBox,
		},
		Bands:     bands,
		NoData:    pf.NoData,
		TimeStamp: ts,
	}, nil
}
