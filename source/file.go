package source

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/geom"
)

// FileSource reads a GeoJSON FeatureCollection from disk on every fetch,
// optionally overriding metrics from a YAML sidecar.
type FileSource struct {
	Path        string
	MetricsPath string
}

// NewFileSource returns a source for the given GeoJSON and optional sidecar
func NewFileSource(path, metricsPath string) *FileSource {
	return &FileSource{Path: path, MetricsPath: metricsPath}
}

// FetchFeatureCollection decodes the file and applies filters
func (s *FileSource) FetchFeatureCollection(ctx context.Context, filters Filters) (geom.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", s.Path)
	}
	fc, err := geom.DecodeGeoJSON(data)
	if err != nil {
		return nil, eris.Wrapf(err, "source: decode %s", s.Path)
	}

	if s.MetricsPath != "" {
		table, err := LoadMetrics(s.MetricsPath)
		if err != nil {
			return nil, err
		}
		fc = table.Join(fc)
	}

	if err := fc.Validate(); err != nil {
		return nil, eris.Wrapf(err, "source: %s", s.Path)
	}
	out := filters.Apply(fc)
	zap.L().Debug("source: loaded file snapshot",
		zap.String("path", s.Path),
		zap.Int("features", len(fc)),
		zap.Int("kept", len(out)),
	)
	return out, nil
}
