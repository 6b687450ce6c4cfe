// Package source loads region snapshots from files, PostGIS or OSM extracts.
package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"kuanb/scout-choropleth/geom"
)

// Source produces the feature snapshot that scenes are built from. Every
// metric is returned so that switching metrics reuses the same snapshot.
type Source interface {
	FetchFeatureCollection(ctx context.Context, filters Filters) (geom.FeatureCollection, error)
}

// Filters restricts a snapshot. An empty filter keeps everything.
type Filters struct {
	Regions []string `json:"regions,omitempty"`
}

// ParseRegions splits a comma separated region list, dropping blanks
func ParseRegions(s string) Filters {
	var f Filters
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			f.Regions = append(f.Regions, r)
		}
	}
	return f
}

// Empty reports whether the filter keeps every feature
func (f Filters) Empty() bool {
	return len(f.Regions) == 0
}

// Key is a stable string form of the filter, used in cache keys
func (f Filters) Key() string {
	return strings.Join(f.lower(), ",")
}

func (f Filters) lower() []string {
	out := make([]string, len(f.Regions))
	for i, r := range f.Regions {
		out[i] = strings.ToLower(r)
	}
	return out
}

// Apply keeps the features whose ID or region name matches one of the
// filter's regions, ignoring case. Collection order is preserved.
func (f Filters) Apply(fc geom.FeatureCollection) geom.FeatureCollection {
	if f.Empty() {
		return fc
	}
	want := make(map[string]struct{}, len(f.Regions))
	for _, r := range f.lower() {
		want[r] = struct{}{}
	}
	out := make(geom.FeatureCollection, 0, len(f.Regions))
	for _, feat := range fc {
		_, byID := want[strings.ToLower(feat.ID)]
		_, byName := want[strings.ToLower(feat.RegionName)]
		if byID || byName {
			out = append(out, feat)
		}
	}
	return out
}

// StaticSource serves a fixed in-memory snapshot
type StaticSource struct {
	fc geom.FeatureCollection
}

// NewStaticSource validates fc and wraps it
func NewStaticSource(fc geom.FeatureCollection) (*StaticSource, error) {
	if err := fc.Validate(); err != nil {
		return nil, eris.Wrap(err, "source: static snapshot")
	}
	return &StaticSource{fc: fc}, nil
}

// FetchFeatureCollection returns the filtered snapshot
func (s *StaticSource) FetchFeatureCollection(ctx context.Context, filters Filters) (geom.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filters.Apply(s.fc), nil
}
