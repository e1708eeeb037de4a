package geo

import (
	"github.com/golang/geo/s2"
)

// Bound is a geographic bounding box.
type Bound struct {
	SW Point `json:"sw"`
	NE Point `json:"ne"`
}

// PathBound returns the bounding box of path, grown by paddingKm towards
// the south-west and north-east corners. The viewport is fitted to this
// box when a route animation starts.
func PathBound(path []Point, paddingKm float64) Bound {
	rect := s2.EmptyRect()
	for _, p := range path {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lng))
	}

	sw := NewPoint(rect.Lo().Lng.Degrees(), rect.Lo().Lat.Degrees())
	ne := NewPoint(rect.Hi().Lng.Degrees(), rect.Hi().Lat.Degrees())

	if paddingKm > 0 {
		sw = GetDestinationPoint(sw, 225, paddingKm)
		ne = GetDestinationPoint(ne, 45, paddingKm)
	}

	return Bound{SW: sw, NE: ne}
}

// Contains reports whether p lies inside the box (borders inclusive).
func (b Bound) Contains(p Point) bool {
	return p.Lat >= b.SW.Lat && p.Lat <= b.NE.Lat &&
		p.Lng >= b.SW.Lng && p.Lng <= b.NE.Lng
}

// PolygonBound returns the bounding box of a closed ring.
func PolygonBound(poly Polygon) Bound {
	return PathBound(poly, 0)
}
