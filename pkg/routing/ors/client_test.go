package ors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/routing"
	"github.com/detour-routing/detour/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(zap.NewNop(), srv.URL, "test-key", "driving-car", 2*time.Second)
	require.NoError(t, err)
	return c
}

func directionsBody(t *testing.T, path []geo.Point, distance, duration float64) []byte {
	t.Helper()
	body := map[string]interface{}{
		"routes": []map[string]interface{}{
			{
				"summary":  map[string]float64{"distance": distance, "duration": duration},
				"geometry": geo.PolylineFromPoints(path),
			},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestComputeRouteOmitsAvoidClauseWhenUnconstrained(t *testing.T) {
	var captured map[string]json.RawMessage

	path := []geo.Point{geo.NewPoint(-73.95, 40.70), geo.NewPoint(-73.93, 40.71)}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(directionsBody(t, path, 2500, 300))
	})

	req := routing.BuildRequest(path[0], path[1], nil)
	route, err := c.ComputeRoute(context.Background(), req)
	require.NoError(t, err)

	_, hasOptions := captured["options"]
	assert.False(t, hasOptions, "unconstrained request must omit options entirely")

	require.Len(t, route.Path, 2)
	assert.InDelta(t, 2.5, route.DistanceKm(), 1e-9)
	assert.InDelta(t, 5.0, route.DurationMinutes(), 1e-9)
}

func TestComputeRouteSendsAvoidPolygons(t *testing.T) {
	var captured struct {
		Coordinates [][]float64 `json:"coordinates"`
		Options     *struct {
			AvoidPolygons struct {
				Type        string             `json:"type"`
				Coordinates [][][][2]float64 `json:"coordinates"`
			} `json:"avoid_polygons"`
		} `json:"options"`
	}

	path := []geo.Point{geo.NewPoint(-73.95, 40.70), geo.NewPoint(-73.93, 40.71)}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(directionsBody(t, path, 2800, 340))
	})

	ring := geo.BufferSegment(geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706), geo.DefaultBufferMargin)
	req := routing.BuildRequest(path[0], path[1], []geo.Polygon{ring})

	_, err := c.ComputeRoute(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, captured.Options)
	assert.Equal(t, "MultiPolygon", captured.Options.AvoidPolygons.Type)
	require.Len(t, captured.Options.AvoidPolygons.Coordinates, 1)
	assert.Len(t, captured.Options.AvoidPolygons.Coordinates[0][0], len(ring))

	require.Len(t, captured.Coordinates, 2)
	assert.Equal(t, -73.95, captured.Coordinates[0][0])
	assert.Equal(t, 40.70, captured.Coordinates[0][1])
}

func TestComputeRouteProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	req := routing.BuildRequest(geo.NewPoint(0, 0), geo.NewPoint(1, 1), nil)
	_, err := c.ComputeRoute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, util.ErrRecomputation, util.ErrorCode(err))
}

func TestComputeRouteMalformedGeometry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[{"summary":{"distance":100,"duration":10},"geometry":""}]}`))
	})

	req := routing.BuildRequest(geo.NewPoint(0, 0), geo.NewPoint(1, 1), nil)
	_, err := c.ComputeRoute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, util.ErrRecomputation, util.ErrorCode(err))
}

func TestComputeRouteEmptyRouteList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[]}`))
	})

	req := routing.BuildRequest(geo.NewPoint(0, 0), geo.NewPoint(1, 1), nil)
	_, err := c.ComputeRoute(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, util.ErrRecomputation, util.ErrorCode(err))
}
