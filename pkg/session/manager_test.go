package session

import (
	"testing"

	"github.com/detour-routing/detour/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager() *Manager {
	return NewManager(zap.NewNop(), &fakeRoutingClient{}, Config{})
}

func TestManagerLifecycle(t *testing.T) {
	m := newTestManager()

	s := m.Create()
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Destroy(s.ID()))
	assert.Zero(t, m.Len())

	_, err = m.Get(s.ID())
	require.Error(t, err)
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(err))

	err = m.Destroy(s.ID())
	require.Error(t, err)
}

func TestManagerCloseAll(t *testing.T) {
	m := newTestManager()
	a := m.Create()
	b := m.Create()

	m.CloseAll()
	assert.Zero(t, m.Len())

	// both sessions are torn down: loop-backed calls fail
	_, err := a.State()
	require.Error(t, err)
	_, err = b.State()
	require.Error(t, err)
}

func TestEventBusSubscribeUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	var got []EventKind
	unsub := bus.Subscribe(EventRouteAppended, func(ev Event) { got = append(got, ev.Kind) })

	bus.Publish(Event{Kind: EventRouteAppended})
	bus.Publish(Event{Kind: EventClosureAdded}) // different kind, not delivered
	require.Len(t, got, 1)

	unsub()
	bus.Publish(Event{Kind: EventRouteAppended})
	assert.Len(t, got, 1)
}

func TestEventBusClosePreventsDelivery(t *testing.T) {
	bus := NewEventBus()

	delivered := false
	bus.SubscribeAll(func(Event) { delivered = true })

	bus.Close()
	bus.Publish(Event{Kind: EventRouteAppended})
	assert.False(t, delivered)

	// subscribing after close is inert
	unsub := bus.Subscribe(EventRouteAppended, func(Event) { delivered = true })
	unsub()
	bus.Publish(Event{Kind: EventRouteAppended})
	assert.False(t, delivered)
}
