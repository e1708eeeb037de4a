package session

import (
	"sync"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/spatialindex"
	"github.com/detour-routing/detour/pkg/util"
)

// Palette is the fixed route color cycle. Index 0 belongs to the initial
// unconstrained route; the n-th closure-triggered recomputation wears
// Palette[n mod len(Palette)].
var Palette = []string{"blue", "green", "purple", "orange", "brown", "darkcyan"}

// ClosureRecord is one user-declared road closure: the raw click segment,
// its derived avoidance ring and the rendered segment line. Records are
// immutable except for deletion.
type ClosureRecord struct {
	ID         int64
	A, B       geo.Point
	Avoidance  geo.Polygon
	DistanceKm float64
	Handle     Handle
}

// ClosureView is the read-only projection handed to the UI layer.
type ClosureView struct {
	ID         int64   `json:"id"`
	DistanceKm float64 `json:"distance_km"`
}

// ClosureRegistry is the ordered, index-addressable collection of live
// closures. It never touches rendering; callers own the visual handles.
type ClosureRegistry struct {
	mu      sync.RWMutex
	nextID  int64
	records []*ClosureRecord
	margin  float64
	index   *spatialindex.ClosureIndex
}

func NewClosureRegistry(margin float64, index *spatialindex.ClosureIndex) *ClosureRegistry {
	if margin <= 0 {
		margin = geo.DefaultBufferMargin
	}
	return &ClosureRegistry{margin: margin, index: index}
}

// Add buffers the click segment into an avoidance ring and appends the
// record. h is the already-rendered segment line owned by the record.
func (r *ClosureRegistry) Add(p1, p2 geo.Point, h Handle) *ClosureRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec := &ClosureRecord{
		ID:         r.nextID,
		A:          p1,
		B:          p2,
		Avoidance:  geo.BufferSegment(p1, p2, r.margin),
		DistanceKm: geo.CalculateHaversineDistance(p1, p2),
		Handle:     h,
	}
	r.records = append(r.records, rec)
	if r.index != nil {
		r.index.Insert(rec.ID, rec.Avoidance)
	}
	return rec
}

// Remove drops the record at index and returns it so the caller can
// release the rendered segment. Stale indexes are an error, never silent.
func (r *ClosureRegistry) Remove(index int) (*ClosureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.records) {
		return nil, util.WrapErrorf(nil, util.ErrIndexOutOfRange, "closure index %d, have %d closures", index, len(r.records))
	}
	rec := r.records[index]
	r.records = append(r.records[:index], r.records[index+1:]...)
	if r.index != nil {
		r.index.Delete(rec.ID)
	}
	return rec, nil
}

// AccumulatedAvoidance returns every live avoidance ring in insertion
// order. The whole sequence feeds every subsequent recomputation.
func (r *ClosureRegistry) AccumulatedAvoidance() []geo.Polygon {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]geo.Polygon, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Avoidance
	}
	return out
}

// At resolves a click to the first live closure whose avoidance ring
// covers p, returning its positional index, or -1.
func (r *ClosureRegistry) At(p geo.Point) int {
	if r.index == nil {
		return -1
	}
	ids := r.index.At(p)
	if len(ids) == 0 {
		return -1
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, rec := range r.records {
		for _, id := range ids {
			if rec.ID == id {
				return i
			}
		}
	}
	return -1
}

func (r *ClosureRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *ClosureRegistry) Views() []ClosureView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]ClosureView, len(r.records))
	for i, rec := range r.records {
		views[i] = ClosureView{ID: rec.ID, DistanceKm: util.RoundFloat(rec.DistanceKm, 3)}
	}
	return views
}

// RouteRecord is one historical recomputation result.
type RouteRecord struct {
	ID          int64
	Color       string
	DistanceKm  float64
	DurationMin float64
	Handle      Handle
	Visible     bool
}

// RouteView is the read-only projection handed to the UI layer.
type RouteView struct {
	ID          int64   `json:"id"`
	Color       string  `json:"color"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Visible     bool    `json:"visible"`
}

// RouteRegistry is the ordered collection of route records. Unlike the
// closure registry it owns show/hide, so it talks to the surface.
type RouteRegistry struct {
	mu      sync.RWMutex
	nextID  int64
	records []*RouteRecord
	surface Surface
}

func NewRouteRegistry(surface Surface) *RouteRegistry {
	return &RouteRegistry{surface: surface}
}

// Append records one successful recomputation. The handle is the polyline
// the animator is (or was) revealing; it starts attached and visible.
func (r *RouteRegistry) Append(color string, distKm, durMin float64, h Handle) *RouteRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec := &RouteRecord{
		ID:          r.nextID,
		Color:       color,
		DistanceKm:  distKm,
		DurationMin: durMin,
		Handle:      h,
		Visible:     true,
	}
	r.records = append(r.records, rec)
	return rec
}

// ToggleVisibility flips the record's visible flag and attaches or
// detaches its polyline accordingly. Toggling twice restores the original
// state without ever double-attaching.
func (r *RouteRegistry) ToggleVisibility(index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.records) {
		return false, util.WrapErrorf(nil, util.ErrIndexOutOfRange, "route index %d, have %d routes", index, len(r.records))
	}
	rec := r.records[index]
	if err := r.surface.SetAttached(rec.Handle, !rec.Visible); err != nil {
		// the handle should always exist while the record lives; a miss
		// means the registry and the surface desynchronized
		return rec.Visible, util.WrapErrorf(err, util.ErrInternalServerError, "route %d handle not on surface", rec.ID)
	}
	rec.Visible = !rec.Visible
	return rec.Visible, nil
}

// Remove detaches the polyline unconditionally (hidden routes included)
// and drops the record.
func (r *RouteRegistry) Remove(index int) (*RouteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.records) {
		return nil, util.WrapErrorf(nil, util.ErrIndexOutOfRange, "route index %d, have %d routes", index, len(r.records))
	}
	rec := r.records[index]
	if err := r.surface.Remove(rec.Handle); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "route %d handle not on surface", rec.ID)
	}
	r.records = append(r.records[:index], r.records[index+1:]...)
	return rec, nil
}

func (r *RouteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *RouteRegistry) Views() []RouteView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]RouteView, len(r.records))
	for i, rec := range r.records {
		views[i] = RouteView{
			ID:          rec.ID,
			Color:       rec.Color,
			DistanceKm:  util.RoundFloat(rec.DistanceKm, 3),
			DurationMin: util.RoundFloat(rec.DurationMin, 1),
			Visible:     rec.Visible,
		}
	}
	return views
}
