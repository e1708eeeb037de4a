package routing

import (
	"context"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RouteRequest is one full recomputation request: origin, destination and
// every currently accumulated avoidance ring, in closure insertion order.
// Avoid is nil (not empty) when the route is unconstrained, so encoders can
// omit the avoidance clause entirely and let the provider fall back to its
// default routing.
type RouteRequest struct {
	Origin      geo.Point
	Destination geo.Point
	Avoid       []geo.Polygon
}

// BuildRequest assembles a routing request. An empty avoidance set yields
// a request with Avoid == nil.
func BuildRequest(origin, destination geo.Point, avoid []geo.Polygon) RouteRequest {
	req := RouteRequest{
		Origin:      origin,
		Destination: destination,
	}
	if len(avoid) > 0 {
		req.Avoid = avoid
	}
	return req
}

// AvoidGeometry wraps the avoidance rings as a GeoJSON MultiPolygon, or
// returns nil when the request is unconstrained.
func (r RouteRequest) AvoidGeometry() *geojson.Geometry {
	if len(r.Avoid) == 0 {
		return nil
	}

	mp := make(orb.MultiPolygon, 0, len(r.Avoid))
	for _, ring := range r.Avoid {
		orbRing := make(orb.Ring, len(ring))
		for i, p := range ring {
			orbRing[i] = orb.Point{p.Lng, p.Lat}
		}
		mp = append(mp, orb.Polygon{orbRing})
	}
	return geojson.NewGeometry(mp)
}

// Route is one computed path from the routing provider.
type Route struct {
	Path            []geo.Point
	DistanceMeters  float64
	DurationSeconds float64
}

func (r *Route) DistanceKm() float64 {
	return util.MetersToKm(r.DistanceMeters)
}

func (r *Route) DurationMinutes() float64 {
	return util.SecondsToMinutes(r.DurationSeconds)
}

// Client performs the network round trip to the external routing provider.
// Implementations must return an error on unreachable providers or
// malformed responses, never panic.
type Client interface {
	ComputeRoute(ctx context.Context, req RouteRequest) (*Route, error)
}
