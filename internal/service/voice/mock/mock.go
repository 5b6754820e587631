// Package mock provides in-memory fakes of the voice capabilities for unit
// tests. Each fake records its calls and returns values configured through
// exported fields.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/prescripto/medibot-backend/internal/service/voice"
)

// Compile-time interface assertions.
var (
	_ voice.Recognizer  = (*Recognizer)(nil)
	_ voice.Synthesizer = (*Synthesizer)(nil)
)

// Recognizer is a fake voice.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Text is returned by Transcribe.
	Text string
	// Err is the error returned by Transcribe.
	Err error
	// Calls records the filename of every Transcribe invocation.
	Calls []string
}

// Transcribe records the call and returns the configured result.
func (r *Recognizer) Transcribe(_ context.Context, _ io.Reader, filename string) (string, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, filename)
	r.mu.Unlock()
	return r.Text, r.Err
}

// Synthesizer is a fake voice.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Audio is returned by Synthesize.
	Audio []byte
	// Err is the error returned by Synthesize.
	Err error
	// Block, when non-nil, is closed-on by Synthesize: the call waits until
	// the channel is closed or the context is cancelled. Lets tests hold an
	// utterance in progress.
	Block chan struct{}
	// Calls records the text of every Synthesize invocation.
	Calls []string
}

// Synthesize records the call and returns the configured result.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, text)
	block := s.Block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Audio, s.Err
}

// SetBlock swaps the blocking channel for subsequent Synthesize calls.
func (s *Synthesizer) SetBlock(block chan struct{}) {
	s.mu.Lock()
	s.Block = block
	s.mu.Unlock()
}

// Texts returns a copy of the recorded Synthesize inputs.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Calls...)
}
