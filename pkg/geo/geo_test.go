package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSegmentVertexOrder(t *testing.T) {
	p1 := NewPoint(-73.94, 40.705)
	p2 := NewPoint(-73.945, 40.706)
	const m = 0.0007

	poly := BufferSegment(p1, p2, m)

	require.Len(t, poly, 5)
	assert.Equal(t, NewPoint(p1.Lng-m, p1.Lat-m), poly[0])
	assert.Equal(t, NewPoint(p1.Lng+m, p1.Lat+m), poly[1])
	assert.Equal(t, NewPoint(p2.Lng+m, p2.Lat+m), poly[2])
	assert.Equal(t, NewPoint(p2.Lng-m, p2.Lat-m), poly[3])
	assert.Equal(t, poly[0], poly[4])
	assert.True(t, poly.Closed())
}

func TestBufferSegmentDegenerate(t *testing.T) {
	p := NewPoint(110.37, -7.77)
	poly := BufferSegment(p, p, 0.0007)

	require.Len(t, poly, 5)
	assert.True(t, poly.Closed())
	// zero-area ring, offsets still applied
	assert.Equal(t, poly[1], poly[2])
	assert.Equal(t, poly[0], poly[3])
}

func TestCalculateHaversineDistance(t *testing.T) {
	// Yogyakarta -> Jakarta, roughly 430 km
	yogya := NewPoint(110.3695, -7.7956)
	jakarta := NewPoint(106.8456, -6.2088)

	got := CalculateHaversineDistance(yogya, jakarta)
	assert.InDelta(t, 430.0, got, 15.0)

	assert.Zero(t, CalculateHaversineDistance(yogya, yogya))
}

func TestPathBound(t *testing.T) {
	path := []Point{
		NewPoint(-73.95, 40.70),
		NewPoint(-73.94, 40.705),
		NewPoint(-73.93, 40.71),
	}

	b := PathBound(path, 0)
	assert.InDelta(t, -73.95, b.SW.Lng, 1e-9)
	assert.InDelta(t, 40.70, b.SW.Lat, 1e-9)
	assert.InDelta(t, -73.93, b.NE.Lng, 1e-9)
	assert.InDelta(t, 40.71, b.NE.Lat, 1e-9)

	padded := PathBound(path, 1.0)
	assert.True(t, padded.SW.Lat < b.SW.Lat)
	assert.True(t, padded.SW.Lng < b.SW.Lng)
	assert.True(t, padded.NE.Lat > b.NE.Lat)
	assert.True(t, padded.NE.Lng > b.NE.Lng)
	for _, p := range path {
		assert.True(t, padded.Contains(p))
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	path := []Point{
		NewPoint(-120.2, 38.5),
		NewPoint(-120.95, 40.7),
		NewPoint(-126.453, 43.252),
	}

	enc := PolylineFromPoints(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", enc)

	dec, err := PointsFromPolyline(enc)
	require.NoError(t, err)
	require.Len(t, dec, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, dec[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lng, dec[i].Lng, 1e-5)
	}
}

func TestBearingTo(t *testing.T) {
	north := BearingTo(NewPoint(0, 0), NewPoint(0, 1))
	assert.InDelta(t, 0.0, north, 1e-9)

	east := BearingTo(NewPoint(0, 0), NewPoint(1, 0))
	assert.InDelta(t, 90.0, east, 1e-6)

	assert.False(t, math.IsNaN(BearingTo(NewPoint(110, -7), NewPoint(110, -7))))
}
