package store

import (
	"sync"

	"github.com/prescripto/medibot-backend/internal/model/chat"
)

// MemoryStore implements TranscriptStore with an in-process map. Transcripts
// live exactly as long as the server process, matching the session-scoped
// storage of the browser client it replaces.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string][]chat.Message
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transcripts: make(map[string][]chat.Message)}
}

// Load returns a copy of the stored transcript, if any.
func (s *MemoryStore) Load(sessionID string) ([]chat.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.transcripts[sessionID]
	if !ok {
		return nil, false
	}
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, true
}

// Save replaces the stored transcript for the session.
func (s *MemoryStore) Save(sessionID string, messages []chat.Message) {
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)

	s.mu.Lock()
	s.transcripts[sessionID] = copied
	s.mu.Unlock()
}

// Clear removes the persisted transcript. Clearing an absent session is a
// no-op, so repeated clears converge on the same empty state.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.transcripts, sessionID)
	s.mu.Unlock()
}
