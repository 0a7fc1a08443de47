// Package store implements the tiled band store that carries the
// intermediate daily mean bands and the final percentile bands. Bands are
// flat little-endian float32 files, one per band, which round-trips 32-bit
// values and the NaN missing marker losslessly.
//
// The store is written exactly once, then flushed and handed over for
// reading: a WriteHandle can only become a ReadHandle through Finalize,
// so a writer and a reader can never share an open store.
package store

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/eoanalytics/tpstack/utils"
)

const bytesPerSample = 4

// WriteHandle is the writer role of a band store.
type WriteHandle struct {
	dir    string
	width  int
	height int
	bands  map[string]*os.File
	order  []string
}

// Create opens a new band store under dir for rasters of the given size.
func Create(dir string, width, height int) (*WriteHandle, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("band store needs positive dimensions, got %dx%d", width, height)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, utils.NewIOFailure("creating band store directory", err)
	}
	return &WriteHandle{
		dir:    dir,
		width:  width,
		height: height,
		bands:  make(map[string]*os.File),
	}, nil
}

// CreateBand adds a band to the store, prefilled with the missing marker so
// a band that never receives a write still reads back as entirely missing.
func (h *WriteHandle) CreateBand(name string) error {
	if _, ok := h.bands[name]; ok {
		return errors.Errorf("band %s already exists in store %s", name, h.dir)
	}
	f, err := os.Create(h.bandPath(name))
	if err != nil {
		return utils.NewIOFailure("creating band "+name, err)
	}

	nan := make([]byte, h.width*bytesPerSample)
	for i := 0; i < h.width; i++ {
		binary.LittleEndian.PutUint32(nan[i*bytesPerSample:], math.Float32bits(float32(math.NaN())))
	}
	for row := 0; row < h.height; row++ {
		if _, err := f.Write(nan); err != nil {
			f.Close()
			return utils.NewIOFailure("initialising band "+name, err)
		}
	}

	h.bands[name] = f
	h.order = append(h.order, name)
	return nil
}

// WriteRegion stores a w*h pixel block with its top-left corner at (x, y).
func (h *WriteHandle) WriteRegion(name string, x, y, w, ht int, data []float32) error {
	f, ok := h.bands[name]
	if !ok {
		return errors.Errorf("band %s does not exist in store %s", name, h.dir)
	}
	if err := checkRegion(h.width, h.height, x, y, w, ht, len(data)); err != nil {
		return err
	}
	row := make([]byte, w*bytesPerSample)
	for r := 0; r < ht; r++ {
		for c := 0; c < w; c++ {
			binary.LittleEndian.PutUint32(row[c*bytesPerSample:], math.Float32bits(data[r*w+c]))
		}
		off := int64(((y+r)*h.width + x) * bytesPerSample)
		if _, err := f.WriteAt(row, off); err != nil {
			return utils.NewIOFailure("writing band region of "+name, err)
		}
	}
	return nil
}

// BandNames lists the bands in creation order.
func (h *WriteHandle) BandNames() []string {
	return append([]string(nil), h.order...)
}

// Finalize flushes and closes every band file and reopens the store
// read-only. The WriteHandle is unusable afterwards.
func (h *WriteHandle) Finalize() (*ReadHandle, error) {
	if err := h.Close(); err != nil {
		return nil, err
	}
	r := &ReadHandle{
		dir:    h.dir,
		width:  h.width,
		height: h.height,
		bands:  make(map[string]*os.File, len(h.order)),
	}
	for _, name := range h.order {
		f, err := os.Open(h.bandPath(name))
		if err != nil {
			r.Close()
			return nil, utils.NewIOFailure("reopening band "+name, err)
		}
		r.bands[name] = f
	}
	return r, nil
}

// Close flushes and closes all band files without reopening.
func (h *WriteHandle) Close() error {
	for name, f := range h.bands {
		if err := f.Sync(); err != nil {
			return utils.NewIOFailure("flushing band "+name, err)
		}
		if err := f.Close(); err != nil {
			return utils.NewIOFailure("closing band "+name, err)
		}
	}
	h.bands = make(map[string]*os.File)
	return nil
}

// Dir is the directory the store lives in.
func (h *WriteHandle) Dir() string {
	return h.dir
}

func (h *WriteHandle) bandPath(name string) string {
	return filepath.Join(h.dir, name+".f32")
}

// ReadHandle is the read-only role of a finalized band store. Concurrent
// readers are safe; all reads go through ReadAt on immutable files.
type ReadHandle struct {
	dir    string
	width  int
	height int
	bands  map[string]*os.File
}

// Open opens an existing band store read-only.
func Open(dir string, width, height int, bandNames []string) (*ReadHandle, error) {
	r := &ReadHandle{
		dir:    dir,
		width:  width,
		height: height,
		bands:  make(map[string]*os.File, len(bandNames)),
	}
	for _, name := range bandNames {
		f, err := os.Open(filepath.Join(dir, name+".f32"))
		if err != nil {
			r.Close()
			return nil, utils.NewIOFailure("opening band "+name, err)
		}
		r.bands[name] = f
	}
	return r, nil
}

// ReadRegion loads a w*h pixel block with its top-left corner at (x, y).
func (r *ReadHandle) ReadRegion(name string, x, y, w, ht int) ([]float32, error) {
	f, ok := r.bands[name]
	if !ok {
		return nil, errors.Errorf("band %s does not exist in store %s", name, r.dir)
	}
	if err := checkRegion(r.width, r.height, x, y, w, ht, w*ht); err != nil {
		return nil, err
	}
	data := make([]float32, w*ht)
	row := make([]byte, w*bytesPerSample)
	for rr := 0; rr < ht; rr++ {
		off := int64(((y+rr)*r.width + x) * bytesPerSample)
		if _, err := f.ReadAt(row, off); err != nil {
			return nil, utils.NewIOFailure("reading band region of "+name, err)
		}
		for c := 0; c < w; c++ {
			data[rr*w+c] = math.Float32frombits(binary.LittleEndian.Uint32(row[c*bytesPerSample:]))
		}
	}
	return data, nil
}

// Close releases all band files.
func (r *ReadHandle) Close() error {
	var firstErr error
	for _, f := range r.bands {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.bands = make(map[string]*os.File)
	return firstErr
}

func checkRegion(width, height, x, y, w, ht, dataLen int) error {
	if x < 0 || y < 0 || w <= 0 || ht <= 0 || x+w > width || y+ht > height {
		return errors.Errorf("region %dx%d at (%d, %d) outside %dx%d band", w, ht, x, y, width, height)
	}
	if dataLen != w*ht {
		return errors.Errorf("region buffer holds %d samples, expected %d", dataLen, w*ht)
	}
	return nil
}
