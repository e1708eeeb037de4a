package geo

import (
	polyline "github.com/twpayne/go-polyline"
)

// PolylineFromPoints encodes a path as a Google encoded polyline (precision 5).
func PolylineFromPoints(path []Point) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// PointsFromPolyline decodes a Google encoded polyline (precision 5) into a path.
func PointsFromPolyline(enc string) ([]Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(enc))
	if err != nil {
		return nil, err
	}
	path := make([]Point, len(coords))
	for i, c := range coords {
		path[i] = NewPoint(c[1], c[0])
	}
	return path, nil
}
