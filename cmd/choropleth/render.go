package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/projection"
	"kuanb/scout-choropleth/scene"
)

var (
	renderOut    string
	renderWidth  float64
	renderHeight float64
)

var renderCmd = &cobra.Command{
	Use:   "render <metric|all>",
	Short: "Render choropleth SVG files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := parseMetrics(args[0])
		if err != nil {
			return err
		}
		style, err := cfg.Map.Style()
		if err != nil {
			return err
		}
		fc, err := fetchSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		w, h := renderWidth, renderHeight
		if w <= 0 {
			w = cfg.Map.Width
		}
		if h <= 0 {
			h = cfg.Map.Height
		}
		paths, err := renderAll(fc, metrics, w, h, style, renderOut)
		if err != nil {
			return err
		}
		for _, p := range paths {
			cmd.Println(p)
		}
		return nil
	},
}

// renderAll writes one SVG per metric into dir, building the scenes
// concurrently from the same snapshot. An empty snapshot produces the
// empty-state SVG rather than an error.
func renderAll(fc geom.FeatureCollection, metrics []geom.Metric, width, height float64, style scene.Style, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "render: create %s", dir)
	}

	paths := make([]string, len(metrics))
	var g errgroup.Group
	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			var buf bytes.Buffer
			sc, err := scene.Build(fc, m, width, height, style)
			switch {
			case eris.Is(err, projection.ErrNoRenderableGeometry):
				zap.L().Warn("render: nothing to draw", zap.String("metric", string(m)))
				err = scene.WriteEmptySVG(&buf, width, height, "No regions to display")
			case err != nil:
				return eris.Wrapf(err, "render: %s", m)
			default:
				for _, sk := range sc.Skipped {
					zap.L().Warn("render: skipped feature",
						zap.String("metric", string(m)),
						zap.String("id", sk.ID),
						zap.String("reason", sk.Reason),
					)
				}
				err = scene.WriteSVG(&buf, sc)
			}
			if err != nil {
				return err
			}

			p := filepath.Join(dir, string(m)+".svg")
			if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
				return eris.Wrapf(err, "render: write %s", p)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "out", "output directory")
	renderCmd.Flags().Float64Var(&renderWidth, "width", 0, "map width (default from config)")
	renderCmd.Flags().Float64Var(&renderHeight, "height", 0, "map height (default from config)")
	rootCmd.AddCommand(renderCmd)
}
