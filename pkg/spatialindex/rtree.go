package spatialindex

import (
	"sync"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/tidwall/rtree"
)

// ClosureIndex is an r-tree over closure avoidance rings, keyed by closure
// id. The UI uses it to resolve a map click to the closure under the
// cursor (select-to-delete) without scanning every registered ring.
type ClosureIndex struct {
	mu     sync.RWMutex
	tr     *rtree.RTreeG[int64]
	bounds map[int64]geo.Bound
}

func NewClosureIndex() *ClosureIndex {
	var tr rtree.RTreeG[int64]
	return &ClosureIndex{
		tr:     &tr,
		bounds: make(map[int64]geo.Bound),
	}
}

func (ci *ClosureIndex) Insert(id int64, ring geo.Polygon) {
	b := geo.PolygonBound(ring)

	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.bounds[id] = b
	ci.tr.Insert([2]float64{b.SW.Lng, b.SW.Lat}, [2]float64{b.NE.Lng, b.NE.Lat}, id)
}

func (ci *ClosureIndex) Delete(id int64) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	b, ok := ci.bounds[id]
	if !ok {
		return
	}
	delete(ci.bounds, id)
	ci.tr.Delete([2]float64{b.SW.Lng, b.SW.Lat}, [2]float64{b.NE.Lng, b.NE.Lat}, id)
}

// At returns the ids of every closure whose ring bound contains p.
func (ci *ClosureIndex) At(p geo.Point) []int64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	results := make([]int64, 0, 4)
	ci.tr.Search([2]float64{p.Lng, p.Lat}, [2]float64{p.Lng, p.Lat},
		func(min, max [2]float64, id int64) bool {
			results = append(results, id)
			return true
		})
	return results
}

// SearchWithinRadius returns the ids of every closure whose ring bound
// intersects the box radius km around q (bearings 225 and 45 span the
// south-west and north-east corners).
func (ci *ClosureIndex) SearchWithinRadius(q geo.Point, radius float64) []int64 {
	lower := geo.GetDestinationPoint(q, 225, radius)
	upper := geo.GetDestinationPoint(q, 45, radius)

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	results := make([]int64, 0, 10)
	ci.tr.Search([2]float64{lower.Lng, lower.Lat}, [2]float64{upper.Lng, upper.Lat},
		func(min, max [2]float64, id int64) bool {
			results = append(results, id)
			return true
		})
	return results
}

func (ci *ClosureIndex) Len() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.bounds)
}
