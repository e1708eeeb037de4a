package session

import (
	"context"
	"time"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/routing"
	"github.com/detour-routing/detour/pkg/spatialindex"
	"github.com/detour-routing/detour/pkg/util"
	"go.uber.org/zap"
)

type State int

const (
	// Idle: origin and/or destination still missing.
	Idle State = iota
	// Ready: both endpoints set, a route is in flight or on the map.
	Ready
	// AwaitingSecondClick: one closure endpoint captured.
	AwaitingSecondClick
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case AwaitingSecondClick:
		return "awaiting_second_click"
	}
	return "unknown"
}

// closureSegmentColor is the line color of the raw declared segment.
const closureSegmentColor = "red"

type Config struct {
	BufferMargin   float64
	AnimationTick  time.Duration
	FramePaddingKm float64
}

// recomputeDone is the completion posted back onto the session loop by a
// routing call goroutine. token orders completions against gestures.
type recomputeDone struct {
	token uint64
	color string
	route *routing.Route
	err   error
}

// Session owns one interactive map session: the click-capture state
// machine, both registries, the animator and the event feed. All state is
// owned by a single event-loop goroutine; intents arrive over a channel,
// so click handling, routing completions and registry mutations are
// serialized deterministically.
type Session struct {
	id      string
	log     *zap.Logger
	client  routing.Client
	surface Surface

	animator *Animator
	routes   *RouteRegistry
	closures *ClosureRegistry
	bus      *EventBus

	intents chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// loop-owned state
	state          State
	origin         *geo.Point
	destination    *geo.Point
	pendingClick   *geo.Point
	colorIdx       int
	issuedSeq      uint64
	cancelInflight context.CancelFunc
	basemap        string
}

func NewSession(id string, log *zap.Logger, client routing.Client, surface Surface, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:       id,
		log:      log.With(zap.String("session", id)),
		client:   client,
		surface:  surface,
		animator: NewAnimator(log, surface, cfg.AnimationTick, cfg.FramePaddingKm),
		routes:   NewRouteRegistry(surface),
		closures: NewClosureRegistry(cfg.BufferMargin, spatialindex.NewClosureIndex()),
		bus:      NewEventBus(),
		intents:  make(chan func(), 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		basemap:  "streets",
	}

	go s.loop()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Events() *EventBus {
	return s.bus
}

// loop is the session's single logical thread of control.
func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.intents:
			fn()
		}
	}
}

// post enqueues an intent without waiting for it.
func (s *Session) post(fn func()) {
	select {
	case s.intents <- fn:
	case <-s.ctx.Done():
		// teardown race: drop quietly
	}
}

// call enqueues an intent and waits for its result.
func call[T any](s *Session, fn func() T) (T, error) {
	var zero T
	res := make(chan T, 1)
	select {
	case s.intents <- func() { res <- fn() }:
	case <-s.ctx.Done():
		return zero, util.WrapErrorf(s.ctx.Err(), util.ErrNotFound, "session %s is closed", s.id)
	}
	select {
	case v := <-res:
		return v, nil
	case <-s.done:
		return zero, util.WrapErrorf(s.ctx.Err(), util.ErrNotFound, "session %s is closed", s.id)
	}
}

// SetOrigin records the origin. Whichever endpoint arrives second moves
// the session out of Idle and issues the initial recomputation; later
// endpoint changes re-route against all accumulated closures. A pending
// first closure click is discarded on any endpoint change.
func (s *Session) SetOrigin(p geo.Point) {
	s.post(func() { s.setEndpoint(&s.origin, p) })
}

// SetDestination records the destination; see SetOrigin.
func (s *Session) SetDestination(p geo.Point) {
	s.post(func() { s.setEndpoint(&s.destination, p) })
}

func (s *Session) setEndpoint(slot **geo.Point, p geo.Point) {
	*slot = &p

	// changing an endpoint mid-gesture discards the buffered click;
	// closures and prior routes persist
	s.pendingClick = nil
	if s.state == AwaitingSecondClick {
		s.state = Ready
	}

	if s.origin == nil || s.destination == nil {
		return
	}
	if s.state == Idle {
		s.state = Ready
	}
	s.recompute(Palette[s.colorIdx])
}

// MapClicked buffers the click; every second click after Ready completes
// a closure gesture.
func (s *Session) MapClicked(p geo.Point) {
	s.post(func() { s.handleClick(p) })
}

func (s *Session) handleClick(p geo.Point) {
	switch s.state {
	case Idle:
		s.log.Debug("click before endpoints set, ignoring",
			zap.Float64("lng", p.Lng), zap.Float64("lat", p.Lat))

	case Ready:
		s.pendingClick = &p
		s.state = AwaitingSecondClick

	case AwaitingSecondClick:
		first := *s.pendingClick
		s.pendingClick = nil
		s.state = Ready

		segment := s.surface.AddPolyline([]geo.Point{first, p}, closureSegmentColor)
		rec := s.closures.Add(first, p, segment)

		view := ClosureView{ID: rec.ID, DistanceKm: rec.DistanceKm}
		s.bus.Publish(Event{Kind: EventClosureAdded, Closure: &view})

		s.colorIdx = (s.colorIdx + 1) % len(Palette)
		s.recompute(Palette[s.colorIdx])
	}
}

// recompute issues a full replace-and-append routing request against the
// entire accumulated avoidance set. Runs on the loop; the network call
// runs in its own goroutine and posts a tokened completion back. Issuing
// a newer recomputation cancels the in-flight one, so a stale response
// can never land after a later gesture's.
func (s *Session) recompute(color string) {
	req := routing.BuildRequest(*s.origin, *s.destination, s.closures.AccumulatedAvoidance())

	s.issuedSeq++
	token := s.issuedSeq

	if s.cancelInflight != nil {
		s.cancelInflight()
	}
	rctx, rcancel := context.WithCancel(s.ctx)
	s.cancelInflight = rcancel

	go func() {
		route, err := s.client.ComputeRoute(rctx, req)
		s.post(func() { s.applyRecompute(recomputeDone{token: token, color: color, route: route, err: err}) })
	}()
}

func (s *Session) applyRecompute(done recomputeDone) {
	if done.token != s.issuedSeq {
		s.log.Debug("dropping stale recomputation", zap.Uint64("token", done.token), zap.Uint64("latest", s.issuedSeq))
		return
	}

	if done.err != nil {
		// the closure that triggered this stays: it is authoritative user
		// intent. Only the route list stops growing.
		s.log.Warn("recomputation failed", zap.Error(done.err))
		s.bus.Publish(Event{Kind: EventRecomputeFailed, Message: done.err.Error()})
		return
	}

	h := s.animator.Animate(s.ctx, done.route.Path, done.color)
	rec := s.routes.Append(done.color, done.route.DistanceKm(), done.route.DurationMinutes(), h)

	view := RouteView{ID: rec.ID, Color: rec.Color, DistanceKm: rec.DistanceKm, DurationMin: rec.DurationMin, Visible: true}
	s.bus.Publish(Event{Kind: EventRouteAppended, Route: &view})
	s.log.Info("route appended",
		zap.String("color", rec.Color),
		zap.Float64("distance_km", rec.DistanceKm),
		zap.Int("closures", s.closures.Len()))
}

// exec runs fn on the session loop and unwraps its error.
func (s *Session) exec(fn func() error) error {
	res, err := call(s, fn)
	if err != nil {
		return err
	}
	return res
}

// ToggleRoute flips visibility of the route at index.
func (s *Session) ToggleRoute(index int) error {
	return s.exec(func() error {
		if _, err := s.routes.ToggleVisibility(index); err != nil {
			return err
		}
		view := s.routes.Views()[index]
		s.bus.Publish(Event{Kind: EventRouteToggled, Route: &view})
		return nil
	})
}

// DeleteRoute detaches the route's polyline (visible or not) and drops
// the record.
func (s *Session) DeleteRoute(index int) error {
	return s.exec(func() error {
		rec, err := s.routes.Remove(index)
		if err != nil {
			return err
		}
		s.bus.Publish(Event{Kind: EventRouteRemoved, Route: &RouteView{ID: rec.ID}})
		return nil
	})
}

// DeleteClosure drops the closure at index and releases its rendered
// segment. It does not trigger a recomputation: existing routes keep
// their history, the next gesture simply routes without the removed ring.
func (s *Session) DeleteClosure(index int) error {
	return s.exec(func() error {
		rec, err := s.closures.Remove(index)
		if err != nil {
			return err
		}
		if err := s.surface.Remove(rec.Handle); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "closure %d handle not on surface", rec.ID)
		}
		s.bus.Publish(Event{Kind: EventClosureRemoved, Closure: &ClosureView{ID: rec.ID}})
		return nil
	})
}

// SelectBasemap stores the basemap choice. It has no routing effect.
func (s *Session) SelectBasemap(name string) {
	s.post(func() {
		s.basemap = name
		s.bus.Publish(Event{Kind: EventBasemapChanged, Message: name})
	})
}

func (s *Session) Basemap() (string, error) {
	return call(s, func() string { return s.basemap })
}

func (s *Session) State() (State, error) {
	return call(s, func() State { return s.state })
}

// Routes returns the read-only route projections for list rendering.
func (s *Session) Routes() []RouteView {
	return s.routes.Views()
}

// Closures returns the read-only closure projections for list rendering.
func (s *Session) Closures() []ClosureView {
	return s.closures.Views()
}

// ClosureAt resolves a click to the positional index of the closure under
// it, or -1.
func (s *Session) ClosureAt(p geo.Point) int {
	return s.closures.At(p)
}

// Close tears the session down: the loop stops, in-flight animations and
// routing calls are canceled, and every event subscription is dropped.
// Late animation ticks or routing completions become no-ops.
func (s *Session) Close() {
	s.cancel()
	<-s.done
	s.bus.Close()
}
