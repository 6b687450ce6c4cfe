package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/config"
	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/source"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "choropleth",
	Short: "Regional choropleth maps for the Scout dashboard",
	Long:  "Classifies regional metrics into quantile bins and renders them as Mercator-projected choropleth maps, from the command line or over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

var regionsFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&regionsFlag, "regions", "", "comma separated regions to keep (default all)")
}

// fetchSnapshot opens the configured source and reads one snapshot
func fetchSnapshot(ctx context.Context) (geom.FeatureCollection, error) {
	src, closeSrc, err := source.Open(ctx, cfg.Source.Options())
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return src.FetchFeatureCollection(ctx, source.ParseRegions(regionsFlag))
}

// parseMetrics resolves a metric argument; "all" expands to every metric
func parseMetrics(arg string) ([]geom.Metric, error) {
	if arg == "all" {
		return geom.Metrics, nil
	}
	m, err := geom.ParseMetric(arg)
	if err != nil {
		return nil, err
	}
	return []geom.Metric{m}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
