package routing

import (
	"encoding/json"
	"testing"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestEmptyAvoidanceOmitsClause(t *testing.T) {
	req := BuildRequest(geo.NewPoint(-73.95, 40.70), geo.NewPoint(-73.93, 40.71), nil)

	assert.Nil(t, req.Avoid)
	assert.Nil(t, req.AvoidGeometry())

	// the encoded options payload must not carry an avoid_polygons key
	type options struct {
		AvoidPolygons interface{} `json:"avoid_polygons,omitempty"`
	}
	raw, err := json.Marshal(options{AvoidPolygons: nil})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "avoid_polygons")
}

func TestBuildRequestPreservesAvoidanceOrder(t *testing.T) {
	first := geo.BufferSegment(geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706), geo.DefaultBufferMargin)
	second := geo.BufferSegment(geo.NewPoint(-73.935, 40.708), geo.NewPoint(-73.936, 40.709), geo.DefaultBufferMargin)

	req := BuildRequest(geo.NewPoint(-73.95, 40.70), geo.NewPoint(-73.93, 40.71),
		[]geo.Polygon{first, second})

	require.Len(t, req.Avoid, 2)
	assert.Equal(t, first, req.Avoid[0])
	assert.Equal(t, second, req.Avoid[1])
}

func TestAvoidGeometryIsMultiPolygon(t *testing.T) {
	ring := geo.BufferSegment(geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706), geo.DefaultBufferMargin)
	req := BuildRequest(geo.NewPoint(-73.95, 40.70), geo.NewPoint(-73.93, 40.71), []geo.Polygon{ring})

	g := req.AvoidGeometry()
	require.NotNil(t, g)

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded struct {
		Type        string            `json:"type"`
		Coordinates [][][][2]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "MultiPolygon", decoded.Type)
	require.Len(t, decoded.Coordinates, 1)
	require.Len(t, decoded.Coordinates[0][0], len(ring))
	assert.Equal(t, ring[0].Lng, decoded.Coordinates[0][0][0][0])
	assert.Equal(t, ring[0].Lat, decoded.Coordinates[0][0][0][1])
}

func TestRouteUnitConversions(t *testing.T) {
	r := &Route{DistanceMeters: 1500, DurationSeconds: 90}
	assert.InDelta(t, 1.5, r.DistanceKm(), 1e-9)
	assert.InDelta(t, 1.5, r.DurationMinutes(), 1e-9)
}
