package geo

import (
	"math"

	"github.com/detour-routing/detour/pkg/util"
)

// BearingTo computes the initial bearing of the segment (p1,p2) in degrees.
// https://www.movable-type.co.uk/scripts/latlong.html
func BearingTo(p1, p2 Point) float64 {
	dLon := util.DegreeToRadians(p2.Lng - p1.Lng)

	lat1 := util.DegreeToRadians(p1.Lat)
	lat2 := util.DegreeToRadians(p2.Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Mod(util.RadiansToDegree(math.Atan2(y, x))+360, 360.0)

	return brng
}
