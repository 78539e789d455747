package checkout

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager is the registry of live kiosk sessions. Sessions left idle past
// the TTL are swept so abandoned carts and proof buffers do not accumulate.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts the expiry sweep
func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Open creates a new session in the Review step with an empty cart
func (m *Manager) Open() *Session {
	s := newSession()

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("Checkout session opened", zap.String("session_id", s.id))
	return s
}

// Get returns the session with the given id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops a session from the registry. The proof buffer is discarded.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.discardProof()
		s.closed = true
		s.mu.Unlock()
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop terminates the expiry sweep
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Manager) sweep() {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.expire()
		}
	}
}

func (m *Manager) expire() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.touchedAt.Before(cutoff) && s.step != StepValidating
		s.mu.Unlock()
		if idle {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.mu.Lock()
		s.discardProof()
		s.closed = true
		s.mu.Unlock()
		m.logger.Info("Checkout session expired", zap.String("session_id", s.id))
	}
}
