package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prescripto/medibot-backend/internal/model/chat"
	"github.com/prescripto/medibot-backend/internal/service/voice"
	"github.com/prescripto/medibot-backend/internal/store"
)

// ErrSessionNotFound reports an unknown conversation session.
var ErrSessionNotFound = errors.New("session not found")

// Deps bundles the collaborators injected into every controller. Recognizer
// and Synthesizer may be nil when no speech capability is configured; the
// affected operations then degrade per the error taxonomy.
type Deps struct {
	Relay       Replier
	Recognizer  voice.Recognizer
	Synthesizer voice.Synthesizer
	Transcripts store.TranscriptStore
	Timeout     time.Duration
}

// Manager creates and resolves conversation controllers by session ID.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]chat.Session
	ctrls    map[string]*Controller
}

// NewManager bootstraps the in-memory session registry.
func NewManager(deps Deps) *Manager {
	if deps.Timeout <= 0 {
		deps.Timeout = 30 * time.Second
	}
	return &Manager{
		deps:     deps,
		sessions: make(map[string]chat.Session),
		ctrls:    make(map[string]*Controller),
	}
}

// CreateSession provisions an anonymous session with its own controller.
func (m *Manager) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	ctrl := newController(session.ID, m.deps.Relay, m.deps.Recognizer, m.deps.Synthesizer, m.deps.Transcripts, m.deps.Timeout)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.ctrls[session.ID] = ctrl
	m.mu.Unlock()

	return session, nil
}

// Controller resolves the controller owning a session.
func (m *Manager) Controller(sessionID string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctrl, ok := m.ctrls[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// GetSession retrieves a session by identifier.
func (m *Manager) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}
