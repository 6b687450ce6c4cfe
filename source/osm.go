package source

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/osm"
)

// DefaultAdminLevels are the OSM levels of Philippine regions and provinces
var DefaultAdminLevels = []string{"3", "4"}

// OSMSource draws region shapes from an OSM extract and metrics from a sidecar.
// The extract is decoded once; the sidecar is re-read on every fetch.
type OSMSource struct {
	Path        string
	MetricsPath string
	Levels      []string

	once       sync.Once
	boundaries geom.FeatureCollection
	err        error
}

// NewOSMSource returns a source over an .osm.pbf extract
func NewOSMSource(path, metricsPath string, levels []string) *OSMSource {
	if len(levels) == 0 {
		levels = DefaultAdminLevels
	}
	return &OSMSource{Path: path, MetricsPath: metricsPath, Levels: levels}
}

func (s *OSMSource) load() {
	bs, err := osm.LoadBoundaries(s.Path, s.Levels)
	if err != nil {
		s.err = err
		return
	}
	s.boundaries = FromBoundaries(bs)
	zap.L().Info("source: loaded OSM boundaries",
		zap.String("path", s.Path),
		zap.Int("boundaries", len(s.boundaries)),
	)
}

// FetchFeatureCollection joins cached boundaries with current metrics
func (s *OSMSource) FetchFeatureCollection(ctx context.Context, filters Filters) (geom.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.once.Do(s.load)
	if s.err != nil {
		return nil, eris.Wrap(s.err, "source: load OSM boundaries")
	}

	fc := s.boundaries
	if s.MetricsPath != "" {
		table, err := LoadMetrics(s.MetricsPath)
		if err != nil {
			return nil, err
		}
		fc = table.Join(fc)
	}
	return filters.Apply(fc), nil
}

// FromBoundaries turns assembled boundaries into features without metrics.
// Boundaries sharing a name are merged into one multipolygon.
func FromBoundaries(bs []osm.Boundary) geom.FeatureCollection {
	byName := make(map[string]int, len(bs))
	fc := make(geom.FeatureCollection, 0, len(bs))
	for _, b := range bs {
		if i, ok := byName[b.Name]; ok {
			fc[i].Geometry = append(fc[i].Geometry, b.Geometry...)
			continue
		}
		byName[b.Name] = len(fc)
		fc = append(fc, geom.Feature{
			ID:         b.Name,
			RegionName: b.Name,
			Geometry:   b.Geometry.Clone(),
			Metrics:    map[geom.Metric]float64{},
		})
	}
	return fc
}
