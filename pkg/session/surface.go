package session

import (
	"sync"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/util"
)

// Handle is an opaque reference to one rendered map artifact. A handle is
// owned by exactly one registry record until that record is deleted.
type Handle int64

// Surface is the single map rendering target shared by the animator and
// the registries. All mutation is serialized through the owning session;
// implementations only need to be safe for the session's own goroutines.
type Surface interface {
	// AddPolyline creates a new, attached polyline and returns its handle.
	AddPolyline(points []geo.Point, color string) Handle
	// AppendPoint extends an existing polyline by one point.
	AppendPoint(h Handle, p geo.Point) error
	// SetAttached shows or hides the artifact without destroying it.
	SetAttached(h Handle, attached bool) error
	// Remove destroys the artifact; its handle becomes invalid.
	Remove(h Handle) error
	// FitBounds reframes the viewport to the given box.
	FitBounds(b geo.Bound)
}

type shape struct {
	points   []geo.Point
	color    string
	attached bool
}

// MemorySurface is the in-memory Surface used by the gateway (as the
// authoritative render state pushed to browsers) and by tests.
type MemorySurface struct {
	mu       sync.RWMutex
	nextID   Handle
	shapes   map[Handle]*shape
	viewport geo.Bound
	framed   bool
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{shapes: make(map[Handle]*shape)}
}

func (s *MemorySurface) AddPolyline(points []geo.Point, color string) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := s.nextID
	pts := make([]geo.Point, len(points))
	copy(pts, points)
	s.shapes[h] = &shape{points: pts, color: color, attached: true}
	return h
}

func (s *MemorySurface) AppendPoint(h Handle, p geo.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shapes[h]
	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "append to unknown handle %d", h)
	}
	sh.points = append(sh.points, p)
	return nil
}

func (s *MemorySurface) SetAttached(h Handle, attached bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shapes[h]
	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "toggle unknown handle %d", h)
	}
	sh.attached = attached
	return nil
}

func (s *MemorySurface) Remove(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shapes[h]; !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "remove unknown handle %d", h)
	}
	delete(s.shapes, h)
	return nil
}

func (s *MemorySurface) FitBounds(b geo.Bound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = b
	s.framed = true
}

// Viewport returns the last framed box and whether FitBounds was called.
func (s *MemorySurface) Viewport() (geo.Bound, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport, s.framed
}

// PointCount returns how many points the polyline currently carries.
func (s *MemorySurface) PointCount(h Handle) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sh, ok := s.shapes[h]; ok {
		return len(sh.points)
	}
	return 0
}

// Attached reports whether the artifact exists and is shown.
func (s *MemorySurface) Attached(h Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shapes[h]
	return ok && sh.attached
}

// Exists reports whether the handle still refers to an artifact.
func (s *MemorySurface) Exists(h Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shapes[h]
	return ok
}

func (s *MemorySurface) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shapes)
}
