package utils

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawBands(t *testing.T, path string, bands ...[]float32) {
	t.Helper()
	var raw []byte
	for _, band := range bands {
		for _, v := range band {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			raw = append(raw, buf[:]...)
		}
	}
	require.NoError(t, os.WriteFile(path, raw, 0644))
}

func TestLoadProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_a.f32")
	writeRawBands(t, path,
		[]float32{1, 2, 3, 4},
		[]float32{5, 6, 7, 8},
	)

	products, err := LoadProducts([]ProductFile{{
		Path:      path,
		TimeStamp: "2020-01-01 10:30:00",
		Width:     2,
		Height:    2,
		BBox:      []float64{0, 0, 2, 2},
		Bands:     []string{"red", "nir"},
		NoData:    -999,
	}})
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "scene_a.f32", p.Name)
	assert.Equal(t, 2, p.Grid.Width)
	assert.Equal(t, []float32{1, 2, 3, 4}, p.Band("red"))
	assert.Equal(t, []float32{5, 6, 7, 8}, p.Band("nir"))
	assert.Nil(t, p.Band("green"))
	assert.Equal(t, 2020, p.TimeStamp.Year())
}

func TestLoadProductsSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.f32")
	writeRawBands(t, path, []float32{1, 2})

	_, err := LoadProducts([]ProductFile{{
		Path:      path,
		TimeStamp: "2020-01-01 10:30:00",
		Width:     2,
		Height:    2,
		BBox:      []float64{0, 0, 2, 2},
		Bands:     []string{"red"},
	}})
	require.Error(t, err)
	var ioErr *IOFailure
	assert.ErrorAs(t, err, &ioErr)
}

func TestLoadProductsBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.f32")
	writeRawBands(t, path, []float32{1})

	_, err := LoadProducts([]ProductFile{{
		Path:      path,
		TimeStamp: "yesterday",
		Width:     1,
		Height:    1,
		BBox:      []float64{0, 0, 1, 1},
		Bands:     []string{"red"},
	}})
	require.Error(t, err)
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestLoadProductsMissingFile(t *testing.T) {
	_, err := LoadProducts([]ProductFile{{
		Path:      filepath.Join(t.TempDir(), "nope.f32"),
		TimeStamp: "2020-01-01 10:30:00",
		Width:     1,
		Height:    1,
		BBox:      []float64{0, 0, 1, 1},
		Bands:     []string{"red"},
	}})
	assert.Error(t, err)
}

func TestBandValueTranslatesNoData(t *testing.T) {
	p := &Product{NoData: -999}
	band := []float32{-999, 3}
	assert.True(t, math.IsNaN(float64(p.BandValue(band, 0))))
	assert.Equal(t, float32(3), p.BandValue(band, 1))
}
