package voice

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Playback notifies an observer about utterance lifecycle changes. Audio is
// non-nil only when an utterance finished synthesis and is ready to play.
type Playback struct {
	Speaking bool
	Audio    []byte
}

// Speaker owns voice playback for one conversation. At most one utterance is
// in progress at a time: speaking a new reply cancels whatever is currently
// being synthesized. The most recent utterance text is retained so playback
// can be repeated on demand.
type Speaker struct {
	mu       sync.Mutex
	synth    Synthesizer
	notify   func(Playback)
	last     string
	audio    []byte
	speaking bool
	gen      int
	cancel   context.CancelFunc
}

// NewSpeaker wires a Speaker to a synthesizer. synth may be nil, in which
// case every playback request is a silent no-op. notify may be nil.
func NewSpeaker(synth Synthesizer, notify func(Playback)) *Speaker {
	if notify == nil {
		notify = func(Playback) {}
	}
	return &Speaker{synth: synth, notify: notify}
}

// Speak sanitizes text and synthesizes it as the new current utterance,
// superseding any utterance still in progress.
func (s *Speaker) Speak(ctx context.Context, text string) {
	s.mu.Lock()
	if s.synth == nil {
		s.mu.Unlock()
		return
	}
	clean := Sanitize(text)
	s.last = clean
	s.startLocked(ctx, clean)
	s.mu.Unlock()
}

// startLocked begins asynchronous synthesis of clean. Caller holds s.mu.
func (s *Speaker) startLocked(ctx context.Context, clean string) {
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.speaking = true
	notify := s.notify
	synth := s.synth

	go func() {
		audio, err := synth.Synthesize(runCtx, clean)

		s.mu.Lock()
		if gen != s.gen {
			// Superseded or cancelled while synthesizing.
			s.mu.Unlock()
			return
		}
		s.speaking = false
		s.cancel = nil
		if err == nil {
			s.audio = audio
		}
		s.mu.Unlock()

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[voice] synthesis failed: %v", err)
			}
			notify(Playback{Speaking: false})
			return
		}
		notify(Playback{Speaking: false, Audio: audio})
	}()

	notify(Playback{Speaking: true})
}

// Toggle cancels the in-progress utterance, or re-speaks the most recent one
// when idle. It reports the speaking state after the toggle.
func (s *Speaker) Toggle(ctx context.Context) bool {
	s.mu.Lock()
	if s.speaking {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.gen++
		s.speaking = false
		notify := s.notify
		s.mu.Unlock()
		notify(Playback{Speaking: false})
		return false
	}
	if s.synth == nil || s.last == "" {
		s.mu.Unlock()
		return false
	}
	s.startLocked(ctx, s.last)
	s.mu.Unlock()
	return true
}

// Speaking reports whether an utterance is currently in progress.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// LastAudio returns the audio of the most recently completed utterance.
func (s *Speaker) LastAudio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// LastUtterance returns the sanitized text of the most recent utterance.
func (s *Speaker) LastUtterance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
