package capture

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultSessionTTL = 5 * time.Minute

type session struct {
	controller *Controller
	createdAt  time.Time
	lastUsed   time.Time
}

// Manager owns one controller per capture session and closes sessions left idle
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	device   Device
	store    storage.Store
	photos   PhotoCreator
	cfg      Config
	ttl      time.Duration
	onCount  func(int)
	now      func() time.Time
	logger   zerolog.Logger
}

type ManagerOption func(*Manager)

// WithSessionTTL sets how long an unused session stays open
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSessionCount is called with the number of open sessions after every change
func WithSessionCount(fn func(int)) ManagerOption {
	return func(m *Manager) {
		m.onCount = fn
	}
}

func NewManager(device Device, store storage.Store, photos PhotoCreator, cfg Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		device:   device,
		store:    store,
		photos:   photos,
		cfg:      cfg,
		ttl:      DefaultSessionTTL,
		onCount:  func(int) {},
		now:      time.Now,
		logger:   log.With().Str("component", "captureSessions").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a session and opens its camera. Nothing is kept when the camera cannot be opened.
func (m *Manager) Open(ctx context.Context) (string, Status, error) {
	controller := NewController(m.device, m.store, m.photos, m.cfg)
	if err := controller.OpenCamera(ctx); err != nil {
		return "", Status{}, err
	}

	id := uuid.NewString()
	now := m.now()

	m.mu.Lock()
	m.sessions[id] = &session{controller: controller, createdAt: now, lastUsed: now}
	count := len(m.sessions)
	m.mu.Unlock()

	m.onCount(count)
	m.logger.Info().Str("sessionId", id).Msg("Capture session opened")
	return id, controller.Status(), nil
}

// Get returns the controller of a session and marks it as used
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, errs.NewNotFound("capture session")
	}
	s.lastUsed = m.now()
	return s.controller, nil
}

// Close closes the session's camera and forgets the session
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return errs.NewNotFound("capture session")
	}
	s.controller.CloseCamera()
	m.onCount(count)
	m.logger.Info().Str("sessionId", id).Msg("Capture session closed")
	return nil
}

// CloseAll releases every open camera
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.controller.CloseCamera()
	}
	m.onCount(0)
	if len(sessions) > 0 {
		m.logger.Info().Int("sessions", len(sessions)).Msg("Closed all capture sessions")
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run closes idle sessions until ctx is done, then closes the rest
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(max(m.ttl/2, 10*time.Millisecond))
	defer ticker.Stop()
	defer m.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*session
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
			m.logger.Info().Str("sessionId", id).Dur("idle", m.now().Sub(s.lastUsed)).Msg("Closing idle capture session")
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.controller.CloseCamera()
	}
	if len(expired) > 0 {
		m.onCount(count)
	}
}
