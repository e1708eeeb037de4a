package usecases

import (
	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/routing"
	"github.com/detour-routing/detour/pkg/session"
	"go.uber.org/zap"
)

// SessionService bridges the HTTP/websocket gateway and the session
// manager: every intent is addressed by session id and forwarded to that
// session's controller.
type SessionService struct {
	log     *zap.Logger
	manager *session.Manager
}

func NewSessionService(log *zap.Logger, client routing.Client, cfg session.Config) *SessionService {
	return &SessionService{
		log:     log,
		manager: session.NewManager(log, client, cfg),
	}
}

func (ss *SessionService) CreateSession() string {
	return ss.manager.Create().ID()
}

func (ss *SessionService) DestroySession(id string) error {
	return ss.manager.Destroy(id)
}

func (ss *SessionService) SetOrigin(id string, p geo.Point) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	s.SetOrigin(p)
	return nil
}

func (ss *SessionService) SetDestination(id string, p geo.Point) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	s.SetDestination(p)
	return nil
}

func (ss *SessionService) MapClick(id string, p geo.Point) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	s.MapClicked(p)
	return nil
}

func (ss *SessionService) Routes(id string) ([]session.RouteView, error) {
	s, err := ss.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

func (ss *SessionService) Closures(id string) ([]session.ClosureView, error) {
	s, err := ss.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Closures(), nil
}

func (ss *SessionService) ToggleRoute(id string, index int) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	return s.ToggleRoute(index)
}

func (ss *SessionService) DeleteRoute(id string, index int) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	return s.DeleteRoute(index)
}

func (ss *SessionService) DeleteClosure(id string, index int) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	return s.DeleteClosure(index)
}

func (ss *SessionService) SelectBasemap(id, name string) error {
	s, err := ss.manager.Get(id)
	if err != nil {
		return err
	}
	s.SelectBasemap(name)
	return nil
}

func (ss *SessionService) ClosureAt(id string, p geo.Point) (int, error) {
	s, err := ss.manager.Get(id)
	if err != nil {
		return -1, err
	}
	return s.ClosureAt(p), nil
}

func (ss *SessionService) State(id string) (string, error) {
	s, err := ss.manager.Get(id)
	if err != nil {
		return "", err
	}
	st, err := s.State()
	if err != nil {
		return "", err
	}
	return st.String(), nil
}

// Subscribe registers h for every event of the session and returns the
// unsubscribe token.
func (ss *SessionService) Subscribe(id string, h session.Handler) (func(), error) {
	s, err := ss.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Events().SubscribeAll(h), nil
}

// Shutdown tears down every live session.
func (ss *SessionService) Shutdown() {
	ss.manager.CloseAll()
}
