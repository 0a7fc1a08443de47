package utils

import (
	"io/ioutil"
	"strings"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DateTimePattern is the layout for the start_date and end_date fields.
const DateTimePattern = "2006-01-02 15:04:05"

const (
	DefaultTileSize    = 256
	DefaultConcurrency = 4
	DefaultResampling  = "Nearest"
)

// ProductFile describes one source acquisition for the flat-file product
// reader. Bands are stored back to back as little-endian float32 in Path.
type ProductFile struct {
	Path      string    `yaml:"path"`
	TimeStamp string    `yaml:"timestamp"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	BBox      []float64 `yaml:"bbox"`
	Bands     []string  `yaml:"bands"`
	NoData    float64   `yaml:"nodata"`
}

// Config is the run configuration of the percentile processor.
type Config struct {
	Products []ProductFile `yaml:"products"`

	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	WestBound  float64 `yaml:"west_bound"`
	NorthBound float64 `yaml:"north_bound"`
	EastBound  float64 `yaml:"east_bound"`
	SouthBound float64 `yaml:"south_bound"`
	PixelSizeX float64 `yaml:"pixel_size_x"`
	PixelSizeY float64 `yaml:"pixel_size_y"`
	CRS        string  `yaml:"crs"`

	SourceBandName       string `yaml:"source_band_name"`
	BandMathsExpression  string `yaml:"band_maths_expression"`
	ValidPixelExpression string `yaml:"valid_pixel_expression"`
	PercentileBandName   string `yaml:"percentile_band_name"`

	Percentiles        []int    `yaml:"percentiles"`
	GapFillMethod      string   `yaml:"gap_fill_method"`
	StartValueFallback *float64 `yaml:"start_value_fallback"`
	EndValueFallback   *float64 `yaml:"end_value_fallback"`

	Resampling  string `yaml:"resampling"`
	TileSize    int    `yaml:"tile_size"`
	Concurrency int    `yaml:"concurrency"`

	TimeSeriesDir    string `yaml:"time_series_dir"`
	OutputDir        string `yaml:"output_dir"`
	KeepIntermediate bool   `yaml:"keep_intermediate"`
}

func LoadConfigFile(configFile string) (*Config, error) {
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "error while reading config file %s", configFile)
	}
	config := &Config{}
	if err := yaml.Unmarshal(cfg, config); err != nil {
		return nil, errors.Wrapf(err, "error while parsing config file %s", configFile)
	}
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.TileSize <= 0 {
		c.TileSize = DefaultTileSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Resampling == "" {
		c.Resampling = DefaultResampling
	}
	if len(c.Percentiles) == 0 {
		c.Percentiles = []int{90}
	}
	if c.CRS == "" {
		c.CRS = "EPSG:4326"
	}
}

// Validate checks the configuration the same way the operator checks its
// parameters before any computation starts.
func (c *Config) Validate() error {
	start, err := c.ParsedStartDate()
	if err != nil {
		return err
	}
	end, err := c.ParsedEndDate()
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return NewConfigurationError("end date '%s' before start date '%s'", c.EndDate, c.StartDate)
	}
	hasBand := c.SourceBandName != ""
	hasExpr := c.BandMathsExpression != ""
	if hasBand == hasExpr {
		return NewConfigurationError("either 'source_band_name' or 'band_maths_expression' must be specified")
	}
	if c.WestBound == c.EastBound {
		return NewConfigurationError("most western longitude must be different from most eastern longitude")
	}
	if c.NorthBound <= c.SouthBound {
		return NewConfigurationError("most northern latitude must be larger than most southern latitude")
	}
	if c.PixelSizeX <= 0 || c.PixelSizeY <= 0 {
		return NewConfigurationError("pixel sizes must be positive")
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 100 {
			return NewConfigurationError("percentile %d out of range [0, 100]", p)
		}
	}
	return nil
}

func (c *Config) ParsedStartDate() (*time.Time, error) {
	return parseDate(c.StartDate, "start_date")
}

func (c *Config) ParsedEndDate() (*time.Time, error) {
	return parseDate(c.EndDate, "end_date")
}

func parseDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateTimePattern, value, time.UTC)
	if err != nil {
		return nil, NewConfigurationError("malformed %s '%s', expected layout '%s'", field, value, DateTimePattern)
	}
	return &t, nil
}

// TargetGrid derives the output raster grid from the geographic bounds and
// pixel sizes. Dimensions follow floor(span / pixelSize).
func (c *Config) TargetGrid() Grid {
	xMin, xMax := c.WestBound, c.EastBound
	if xMin > xMax {
		xMin, xMax = xMax, xMin
	}
	width := int((xMax - xMin) / c.PixelSizeX)
	height := int((c.NorthBound - c.SouthBound) / c.PixelSizeY)
	return Grid{
		Width:  width,
		Height: height,
		BBox:   []float64{xMin, c.SouthBound, xMax, c.NorthBound},
		CRS:    c.CRS,
	}
}

// BandNamePrefix is the base identifier for every band this run produces:
// the configured percentile band name, else the source band name, else the
// band-maths expression with spaces flattened to underscores.
func (c *Config) BandNamePrefix() string {
	if c.PercentileBandName != "" {
		return c.PercentileBandName
	}
	if c.SourceBandName != "" {
		return c.SourceBandName
	}
	return strings.ReplaceAll(c.BandMathsExpression, " ", "_")
}
