package session

import "sync"

type EventKind string

const (
	EventRouteAppended   EventKind = "route_appended"
	EventRouteToggled    EventKind = "route_toggled"
	EventRouteRemoved    EventKind = "route_removed"
	EventClosureAdded    EventKind = "closure_added"
	EventClosureRemoved  EventKind = "closure_removed"
	EventRecomputeFailed EventKind = "recompute_failed"
	EventBasemapChanged  EventKind = "basemap_changed"
)

// Event is one discrete state change pushed to UI subscribers.
type Event struct {
	Kind    EventKind    `json:"kind"`
	Route   *RouteView   `json:"route,omitempty"`
	Closure *ClosureView `json:"closure,omitempty"`
	Message string       `json:"message,omitempty"`
}

type Handler func(Event)

// EventBus is a minimal subscription registry. Unsubscribing is a
// returned token function so the owner can deterministically unwind every
// subscription on teardown.
type EventBus struct {
	mu     sync.RWMutex
	seq    int
	subs   map[EventKind]map[int]Handler
	closed bool
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[EventKind]map[int]Handler)}
}

func (b *EventBus) Subscribe(kind EventKind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]Handler)
	}
	b.seq++
	id := b.seq
	b.subs[kind][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// SubscribeAll registers h for every event kind.
func (b *EventBus) SubscribeAll(h Handler) (unsubscribe func()) {
	kinds := []EventKind{
		EventRouteAppended, EventRouteToggled, EventRouteRemoved,
		EventClosureAdded, EventClosureRemoved, EventRecomputeFailed,
		EventBasemapChanged,
	}
	unsubs := make([]func(), 0, len(kinds))
	for _, k := range kinds {
		unsubs = append(unsubs, b.Subscribe(k, h))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Kind]))
	if !b.closed {
		for _, h := range b.subs[ev.Kind] {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Close drops every subscription; publishes after Close are no-ops, so a
// late handler fire after session teardown cannot reach dead consumers.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[EventKind]map[int]Handler)
}
