package voice_test

import (
	"context"
	"testing"
	"time"

	"github.com/prescripto/medibot-backend/internal/service/voice"
	"github.com/prescripto/medibot-backend/internal/service/voice/mock"
)

func waitPlayback(t *testing.T, ch <-chan voice.Playback) voice.Playback {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback event")
		return voice.Playback{}
	}
}

func TestSpeakerSpeaksSanitizedText(t *testing.T) {
	synth := &mock.Synthesizer{Audio: []byte("mp3")}
	events := make(chan voice.Playback, 8)
	speaker := voice.NewSpeaker(synth, func(p voice.Playback) { events <- p })

	speaker.Speak(context.Background(), "**Hello**\nWorld")

	if p := waitPlayback(t, events); !p.Speaking {
		t.Fatal("expected speaking to start")
	}
	end := waitPlayback(t, events)
	if end.Speaking {
		t.Fatal("expected speaking to end")
	}
	if string(end.Audio) != "mp3" {
		t.Fatalf("unexpected audio: %q", end.Audio)
	}

	texts := synth.Texts()
	if len(texts) != 1 || texts[0] != "Hello. World" {
		t.Fatalf("unexpected synthesized texts: %v", texts)
	}
	if speaker.LastUtterance() != "Hello. World" {
		t.Fatalf("unexpected last utterance: %q", speaker.LastUtterance())
	}
	if speaker.Speaking() {
		t.Fatal("speaker should be idle after the utterance ends")
	}
}

func TestSpeakerNewUtteranceSupersedesCurrent(t *testing.T) {
	block := make(chan struct{})
	synth := &mock.Synthesizer{Audio: []byte("a"), Block: block}
	speaker := voice.NewSpeaker(synth, nil)

	speaker.Speak(context.Background(), "first")
	if !speaker.Speaking() {
		t.Fatal("expected first utterance in progress")
	}

	// Second speak cancels the first mid-synthesis.
	synth.SetBlock(nil)
	speaker.Speak(context.Background(), "second")
	close(block)

	deadline := time.Now().Add(2 * time.Second)
	for speaker.Speaking() {
		if time.Now().After(deadline) {
			t.Fatal("speaker never became idle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if speaker.LastUtterance() != "second" {
		t.Fatalf("unexpected last utterance: %q", speaker.LastUtterance())
	}
}

func TestSpeakerToggleCancelsAndResumes(t *testing.T) {
	block := make(chan struct{})
	synth := &mock.Synthesizer{Audio: []byte("a"), Block: block}
	speaker := voice.NewSpeaker(synth, nil)

	speaker.Speak(context.Background(), "read this aloud")
	if speaking := speaker.Toggle(context.Background()); speaking {
		t.Fatal("toggle during an utterance must cancel it")
	}
	if speaker.Speaking() {
		t.Fatal("speaker should be idle after cancel")
	}

	// Toggle again re-speaks the retained utterance.
	synth.SetBlock(nil)
	close(block)
	if speaking := speaker.Toggle(context.Background()); !speaking {
		t.Fatal("toggle while idle must re-speak the last utterance")
	}

	deadline := time.Now().Add(2 * time.Second)
	for speaker.Speaking() {
		if time.Now().After(deadline) {
			t.Fatal("re-spoken utterance never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	texts := synth.Texts()
	if len(texts) != 2 || texts[1] != "read this aloud" {
		t.Fatalf("unexpected synthesized texts: %v", texts)
	}
}

func TestSpeakerToggleWithoutUtterance(t *testing.T) {
	speaker := voice.NewSpeaker(&mock.Synthesizer{}, nil)
	if speaker.Toggle(context.Background()) {
		t.Fatal("toggle with no prior utterance must stay idle")
	}
}

func TestSpeakerNilSynthesizerIsInert(t *testing.T) {
	speaker := voice.NewSpeaker(nil, nil)
	speaker.Speak(context.Background(), "anything")
	if speaker.Speaking() {
		t.Fatal("nil synthesizer must never report speaking")
	}
	if speaker.Toggle(context.Background()) {
		t.Fatal("toggle must be inert without a synthesizer")
	}
}
