package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// property keys recognised for the region name, in lookup order
var nameKeys = []string{"regionName", "region_name", "name"}

// DecodeGeoJSON converts a GeoJSON FeatureCollection into a snapshot.
// Non-polygonal geometries are kept with empty geometry so the projection
// step can report them as skipped.
func DecodeGeoJSON(data []byte) (FeatureCollection, error) {
	raw, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrap(err, "geom: decode geojson")
	}

	fc := make(FeatureCollection, 0, len(raw.Features))
	for i, f := range raw.Features {
		feat := Feature{
			Metrics: make(map[Metric]float64, len(Metrics)),
		}

		for _, k := range nameKeys {
			if s := stringProp(f.Properties, k); s != "" {
				feat.RegionName = s
				break
			}
		}

		switch {
		case f.ID != nil:
			feat.ID = fmt.Sprint(f.ID)
		case stringProp(f.Properties, "id") != "":
			feat.ID = stringProp(f.Properties, "id")
		case feat.RegionName != "":
			feat.ID = feat.RegionName
		default:
			feat.ID = fmt.Sprintf("feature-%d", i)
		}
		if feat.RegionName == "" {
			feat.RegionName = feat.ID
		}

		for _, m := range Metrics {
			if v, ok := f.Properties[string(m)].(float64); ok {
				feat.Metrics[m] = v
			}
		}

		if c, ok := f.Properties["centroid"].([]interface{}); ok && len(c) == 2 {
			lon, okLon := c[0].(float64)
			lat, okLat := c[1].(float64)
			if okLon && okLat {
				feat.Centroid = &orb.Point{lon, lat}
			}
		}

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			feat.Geometry = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			feat.Geometry = g
		}

		fc = append(fc, feat)
	}
	return fc, nil
}

func stringProp(props geojson.Properties, key string) string {
	s, _ := props[key].(string)
	return s
}

// EncodeGeoJSON renders a snapshot back to a GeoJSON FeatureCollection
func EncodeGeoJSON(fc FeatureCollection) ([]byte, error) {
	out := geojson.NewFeatureCollection()
	for _, f := range fc {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		gf.Properties["regionName"] = f.RegionName
		for m, v := range f.Metrics {
			gf.Properties[string(m)] = v
		}
		if f.Centroid != nil {
			gf.Properties["centroid"] = []float64{f.Centroid[0], f.Centroid[1]}
		}
		out.Append(gf)
	}
	data, err := out.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "geom: encode geojson")
	}
	return data, nil
}
