package store

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, 4, 3)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b1"))

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	require.NoError(t, w.WriteRegion("b1", 0, 0, 4, 3, data))

	r, err := w.Finalize()
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRegion("b1", 0, 0, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	window, err := r.ReadRegion("b1", 1, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 7, 10, 11}, window)
}

func TestCreateBandPrefilledWithMissingMarker(t *testing.T) {
	w, err := Create(t.TempDir(), 3, 2)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("empty"))

	r, err := w.Finalize()
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRegion("empty", 0, 0, 3, 2)
	require.NoError(t, err)
	for i, v := range got {
		assert.True(t, math.IsNaN(float64(v)), "sample %d", i)
	}
}

func TestNaNRoundTrip(t *testing.T) {
	w, err := Create(t.TempDir(), 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b"))
	require.NoError(t, w.WriteRegion("b", 0, 0, 2, 1, []float32{float32(math.NaN()), -0.5}))

	r, err := w.Finalize()
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRegion("b", 0, 0, 2, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(got[0])))
	assert.Equal(t, float32(-0.5), got[1])
}

func TestPartialRegionWrites(t *testing.T) {
	w, err := Create(t.TempDir(), 4, 4)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b"))
	require.NoError(t, w.WriteRegion("b", 2, 2, 2, 2, []float32{1, 2, 3, 4}))

	r, err := w.Finalize()
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRegion("b", 2, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, got)

	untouched, err := r.ReadRegion("b", 0, 0, 2, 2)
	require.NoError(t, err)
	for _, v := range untouched {
		assert.True(t, math.IsNaN(float64(v)))
	}
}

func TestRegionBoundsChecked(t *testing.T) {
	w, err := Create(t.TempDir(), 4, 4)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b"))

	assert.Error(t, w.WriteRegion("b", 3, 0, 2, 1, []float32{1, 2}))
	assert.Error(t, w.WriteRegion("b", 0, 0, 2, 1, []float32{1}))
	assert.Error(t, w.WriteRegion("missing", 0, 0, 1, 1, []float32{1}))

	r, err := w.Finalize()
	require.NoError(t, err)
	defer r.Close()
	_, err = r.ReadRegion("b", -1, 0, 1, 1)
	assert.Error(t, err)
}

func TestDuplicateBandRejected(t *testing.T) {
	w, err := Create(t.TempDir(), 2, 2)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b"))
	assert.Error(t, w.CreateBand("b"))
}

func TestOpenExistingStore(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, 2, 2)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("b"))
	require.NoError(t, w.WriteRegion("b", 0, 0, 2, 2, []float32{1, 2, 3, 4}))
	require.NoError(t, w.Close())

	r, err := Open(dir, 2, 2, []string{"b"})
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadRegion("b", 0, 0, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, got)

	_, err = Open(dir, 2, 2, []string{"nope"})
	assert.Error(t, err)
}

func TestBandFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, 2, 2)
	require.NoError(t, err)
	require.NoError(t, w.CreateBand("ndvi_p90_threshold"))
	require.NoError(t, w.Close())

	info, err := os.Stat(filepath.Join(dir, "ndvi_p90_threshold.f32"))
	require.NoError(t, err)
	assert.Equal(t, int64(2*2*4), info.Size())
}
