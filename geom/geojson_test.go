package geom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const regionsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "ncr",
      "properties": {"regionName": "National Capital Region", "revenue": 2500000, "stores": 42, "growth": 12.5},
      "geometry": {"type": "Polygon", "coordinates": [[[120.9,14.4],[121.1,14.4],[121.1,14.8],[120.9,14.8],[120.9,14.4]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Cordillera", "transactions": 1800, "centroid": [120.8, 17.3]},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[120.5,16.5],[121.5,16.5],[121.5,18.0],[120.5,18.0],[120.5,16.5]]],
        [[[122.0,17.0],[122.2,17.0],[122.2,17.2],[122.0,17.0]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"id": "pin"},
      "geometry": {"type": "Point", "coordinates": [121, 14]}
    }
  ]
}`

func TestDecodeGeoJSON(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(regionsJSON))
	require.NoError(t, err)
	require.Len(t, fc, 3)

	ncr := fc[0]
	assert.Equal(t, "ncr", ncr.ID)
	assert.Equal(t, "National Capital Region", ncr.RegionName)
	assert.Len(t, ncr.Geometry, 1)
	assert.Equal(t, 2500000.0, ncr.Metrics[MetricRevenue])
	assert.Equal(t, 12.5, ncr.Metrics[MetricGrowth])
	_, hasTx := ncr.Metrics[MetricTransactions]
	assert.False(t, hasTx)
	assert.Nil(t, ncr.Centroid)

	car := fc[1]
	assert.Equal(t, "Cordillera", car.ID)
	assert.Len(t, car.Geometry, 2)
	require.NotNil(t, car.Centroid)
	assert.Equal(t, orb.Point{120.8, 17.3}, *car.Centroid)

	pin := fc[2]
	assert.Equal(t, "pin", pin.ID)
	assert.Equal(t, "pin", pin.RegionName)
	assert.Empty(t, pin.Geometry)

	assert.NoError(t, fc.Validate())
}

func TestDecodeGeoJSON_Invalid(t *testing.T) {
	_, err := DecodeGeoJSON([]byte(`{"type":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode geojson")
}

func TestEncodeGeoJSON(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(regionsJSON))
	require.NoError(t, err)

	data, err := EncodeGeoJSON(fc[:2])
	require.NoError(t, err)

	back, err := DecodeGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, fc[0].ID, back[0].ID)
	assert.Equal(t, fc[1].RegionName, back[1].RegionName)
	assert.Equal(t, fc[1].Geometry, back[1].Geometry)
	assert.Equal(t, *fc[1].Centroid, *back[1].Centroid)
}
