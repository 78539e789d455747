package checkout

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManagerOpenAndGet(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	defer m.Stop()

	s := m.Open()
	if s.Snapshot().Step != StepReview {
		t.Error("new session must start in Review")
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerRemoveClosesSession(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	defer m.Stop()

	s := m.Open()
	s.mu.Lock()
	s.proof = []byte("jpeg")
	s.mu.Unlock()

	m.Remove(s.ID())

	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Error("removed session still retrievable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		t.Error("removed session must be closed")
	}
	if s.proof != nil {
		t.Error("proof buffer must be discarded on removal")
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	m := NewManager(10*time.Millisecond, zap.NewNop())
	defer m.Stop()

	s := m.Open()
	s.mu.Lock()
	s.touchedAt = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	m.expire()

	if m.Len() != 0 {
		t.Error("idle session was not expired")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		t.Error("expired session must be closed")
	}
}

func TestManagerDoesNotExpireValidatingSessions(t *testing.T) {
	m := NewManager(10*time.Millisecond, zap.NewNop())
	defer m.Stop()

	s := m.Open()
	s.mu.Lock()
	s.touchedAt = time.Now().Add(-time.Hour)
	s.step = StepValidating
	s.mu.Unlock()

	m.expire()

	if m.Len() != 1 {
		t.Error("a session waiting on the oracle must not be expired")
	}
}
