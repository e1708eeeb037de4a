package session

import (
	"sync"

	"github.com/detour-routing/detour/pkg/routing"
	"github.com/detour-routing/detour/pkg/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns every live interactive session, keyed by a generated id.
type Manager struct {
	log    *zap.Logger
	client routing.Client
	cfg    Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(log *zap.Logger, client routing.Client, cfg Config) *Manager {
	return &Manager{
		log:      log,
		client:   client,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create spins up a new session with a fresh in-memory surface.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := NewSession(id, m.log, m.client, NewMemorySurface(), m.cfg)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.log.Info("session created", zap.String("session", id))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "session %s not found", id)
	}
	return s, nil
}

// Destroy tears the session down and forgets it.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return util.WrapErrorf(nil, util.ErrNotFound, "session %s not found", id)
	}
	s.Close()
	m.log.Info("session destroyed", zap.String("session", id))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll tears down every session (server shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
