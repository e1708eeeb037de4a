package session

import (
	"errors"
	"testing"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/spatialindex"
	"github.com/detour-routing/detour/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addClosure(t *testing.T, reg *ClosureRegistry, surface *MemorySurface, p1, p2 geo.Point) *ClosureRecord {
	t.Helper()
	h := surface.AddPolyline([]geo.Point{p1, p2}, closureSegmentColor)
	return reg.Add(p1, p2, h)
}

func TestClosureRegistryAccumulatedAvoidance(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewClosureRegistry(geo.DefaultBufferMargin, spatialindex.NewClosureIndex())

	a := addClosure(t, reg, surface, geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706))
	b := addClosure(t, reg, surface, geo.NewPoint(-73.93, 40.708), geo.NewPoint(-73.935, 40.709))
	c := addClosure(t, reg, surface, geo.NewPoint(-73.92, 40.711), geo.NewPoint(-73.925, 40.712))

	acc := reg.AccumulatedAvoidance()
	require.Len(t, acc, 3)
	assert.Equal(t, a.Avoidance, acc[0])
	assert.Equal(t, b.Avoidance, acc[1])
	assert.Equal(t, c.Avoidance, acc[2])

	removed, err := reg.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)

	acc = reg.AccumulatedAvoidance()
	require.Len(t, acc, 2)
	assert.Equal(t, a.Avoidance, acc[0])
	assert.Equal(t, c.Avoidance, acc[1])
}

func TestClosureRegistryAddComputesDistanceAndRing(t *testing.T) {
	reg := NewClosureRegistry(geo.DefaultBufferMargin, nil)
	surface := NewMemorySurface()

	p1 := geo.NewPoint(-73.94, 40.705)
	p2 := geo.NewPoint(-73.945, 40.706)
	rec := addClosure(t, reg, surface, p1, p2)

	assert.InDelta(t, geo.CalculateHaversineDistance(p1, p2), rec.DistanceKm, 0.01)
	assert.Equal(t, geo.BufferSegment(p1, p2, geo.DefaultBufferMargin), rec.Avoidance)
	assert.True(t, rec.Avoidance.Closed())
}

func TestClosureRegistryRemoveOutOfRange(t *testing.T) {
	reg := NewClosureRegistry(geo.DefaultBufferMargin, nil)

	_, err := reg.Remove(0)
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrIndexOutOfRange))
}

func TestClosureRegistryDeleteMiddleOfThree(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewClosureRegistry(geo.DefaultBufferMargin, spatialindex.NewClosureIndex())

	first := addClosure(t, reg, surface, geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706))
	second := addClosure(t, reg, surface, geo.NewPoint(-73.93, 40.708), geo.NewPoint(-73.935, 40.709))
	third := addClosure(t, reg, surface, geo.NewPoint(-73.92, 40.711), geo.NewPoint(-73.925, 40.712))

	removed, err := reg.Remove(1)
	require.NoError(t, err)
	require.NoError(t, surface.Remove(removed.Handle))

	views := reg.Views()
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, third.ID, views[1].ID)

	assert.False(t, surface.Exists(second.Handle))
	assert.True(t, surface.Attached(first.Handle))
	assert.True(t, surface.Attached(third.Handle))
}

func TestClosureRegistryAt(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewClosureRegistry(geo.DefaultBufferMargin, spatialindex.NewClosureIndex())

	addClosure(t, reg, surface, geo.NewPoint(-73.94, 40.705), geo.NewPoint(-73.945, 40.706))
	addClosure(t, reg, surface, geo.NewPoint(-73.80, 40.60), geo.NewPoint(-73.81, 40.61))

	assert.Equal(t, 0, reg.At(geo.NewPoint(-73.942, 40.7055)))
	assert.Equal(t, 1, reg.At(geo.NewPoint(-73.805, 40.605)))
	assert.Equal(t, -1, reg.At(geo.NewPoint(-73.70, 40.50)))
}

func TestRouteRegistryToggleVisibilityIdempotentPair(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewRouteRegistry(surface)

	h := surface.AddPolyline([]geo.Point{geo.NewPoint(0, 0), geo.NewPoint(1, 1)}, "blue")
	reg.Append("blue", 2.5, 5.0, h)

	visible, err := reg.ToggleVisibility(0)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.False(t, surface.Attached(h))

	visible, err = reg.ToggleVisibility(0)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.True(t, surface.Attached(h))
}

func TestRouteRegistryRemoveDetachesHiddenRoute(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewRouteRegistry(surface)

	h := surface.AddPolyline([]geo.Point{geo.NewPoint(0, 0), geo.NewPoint(1, 1)}, "green")
	reg.Append("green", 1.0, 2.0, h)

	_, err := reg.ToggleVisibility(0)
	require.NoError(t, err)

	rec, err := reg.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, h, rec.Handle)
	assert.False(t, surface.Exists(h))
	assert.Zero(t, reg.Len())
}

func TestRouteRegistryStaleIndex(t *testing.T) {
	reg := NewRouteRegistry(NewMemorySurface())

	_, err := reg.ToggleVisibility(3)
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrIndexOutOfRange))

	_, err = reg.Remove(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrIndexOutOfRange))
}

func TestRouteRegistryToggleDesyncedHandle(t *testing.T) {
	surface := NewMemorySurface()
	reg := NewRouteRegistry(surface)

	h := surface.AddPolyline(nil, "purple")
	reg.Append("purple", 1.0, 2.0, h)

	// simulate surface/registry desync: someone removed the artifact
	// without going through the registry
	require.NoError(t, surface.Remove(h))

	_, err := reg.ToggleVisibility(0)
	require.Error(t, err)
}
