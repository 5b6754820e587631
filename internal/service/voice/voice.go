// Package voice defines the speech capabilities consumed by the conversation
// controller. Capture and playback are injected interfaces so the controller
// can run against fakes in tests and degrade cleanly when the host deployment
// has no speech provider configured.
package voice

import (
	"context"
	"errors"
	"io"
)

// ErrRecognizerUnavailable reports a capture attempt without a configured
// speech-to-text capability. Callers surface it to the user and abort the
// capture without touching conversation state.
var ErrRecognizerUnavailable = errors.New("speech recognition not available")

// Recognizer converts one recorded utterance into text. Implementations are
// single-shot, not continuous: one call, one transcript.
type Recognizer interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Synthesizer renders text to playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
