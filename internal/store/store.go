package store

import "github.com/prescripto/medibot-backend/internal/model/chat"

// TranscriptStore persists the full transcript of a session as one blob.
// The conversation controller saves on every mutation and restores once at
// start, so implementations only need whole-transcript semantics.
type TranscriptStore interface {
	Load(sessionID string) ([]chat.Message, bool)
	Save(sessionID string, messages []chat.Message)
	Clear(sessionID string)
}
