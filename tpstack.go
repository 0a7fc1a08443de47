package main

/* tpstack computes per-pixel percentile thresholds over a stack of
   geospatially-registered raster acquisitions. The input products are
   grouped per day and reduced to one collocated mean band each; days
   without data leave gaps in the per-pixel time series which are filled
   by interpolation before the thresholds are extracted tile by tile.
   Configuration of a run is specified in a YAML file, see the
   products and percentile sections of the Config struct. */

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/eoanalytics/tpstack/processor"
	"github.com/eoanalytics/tpstack/utils"
)

var (
	configFile = flag.String("conf", "tpstack.yaml", "Run configuration file.")
	verbose    = flag.Bool("v", false, "Verbose mode for more processing outputs.")
)

func main() {
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tpstack: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	config, err := utils.LoadConfigFile(*configFile)
	if err != nil {
		log.Fatal("cannot load run configuration", zap.Error(err))
	}
	if err := config.Validate(); err != nil {
		log.Fatal("invalid run configuration", zap.Error(err))
	}

	products, err := utils.LoadProducts(config.Products)
	if err != nil {
		log.Fatal("cannot load source products", zap.Error(err))
	}
	log.Info("source products loaded", zap.Int("count", len(products)))

	pipeline := processor.InitPercentilePipeline(config, processor.GridResampler{}, log)
	if err := pipeline.Run(context.Background(), products); err != nil {
		log.Fatal("percentile computation failed", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
