package geo

import (
	"math"

	"github.com/detour-routing/detour/pkg/util"
)

// Point is a geographic coordinate in GeoJSON order: longitude first.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func NewPoint(lng, lat float64) Point {
	return Point{Lng: lng, Lat: lat}
}

func (p Point) GetLng() float64 {
	return p.Lng
}

func (p Point) GetLat() float64 {
	return p.Lat
}

// Polygon is a closed linear ring: the first vertex is repeated as the last.
type Polygon []Point

// Closed reports whether the ring's first and last vertices coincide.
func (poly Polygon) Closed() bool {
	if len(poly) < 2 {
		return false
	}
	return poly[0] == poly[len(poly)-1]
}

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// CalculateHaversineDistance. calculate haversine distance in km
func CalculateHaversineDistance(p1, p2 Point) float64 {
	latOne := util.DegreeToRadians(p1.Lat)
	longOne := util.DegreeToRadians(p1.Lng)
	latTwo := util.DegreeToRadians(p2.Lat)
	longTwo := util.DegreeToRadians(p2.Lng)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// GetDestinationPoint returns the destination point given the starting point, bearing and distance
// dist in km
func GetDestinationPoint(p Point, bearing float64, dist float64) Point {
	dr := dist / earthRadiusKM

	bearing = util.DegreeToRadians(bearing)

	lat1 := util.DegreeToRadians(p.Lat)
	lon1 := util.DegreeToRadians(p.Lng)

	lat2Part1 := math.Sin(lat1) * math.Cos(dr)
	lat2Part2 := math.Cos(lat1) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))

	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)

	return NewPoint(normalizeLongitude(util.RadiansToDegree(lon2)), util.RadiansToDegree(lat2))
}

// normalizeLongitude. long in degree
func normalizeLongitude(long float64) float64 {
	return math.Mod((long+540), 360) - 180.0
}
