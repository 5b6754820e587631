package conversation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prescripto/medibot-backend/internal/model/chat"
	"github.com/prescripto/medibot-backend/internal/service/voice"
	"github.com/prescripto/medibot-backend/internal/store"
)

// FallbackReply is appended in place of a reply when the relay fails, so the
// transcript stays continuous and the failure is visible but recoverable.
const FallbackReply = "Sorry, I'm having trouble responding right now."

var (
	// ErrEmptyInput reports a submit with blank input. No state changes.
	ErrEmptyInput = errors.New("input is empty")
	// ErrBusy reports a submit while a reply is already in flight. The
	// in-flight slot is single-occupancy; callers retry after resolution.
	ErrBusy = errors.New("a reply is already in flight")
)

// Replier is the prompt relay as seen by the controller.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Controller owns all conversational state of one session: the append-only
// transcript, the input buffer, the typing flag, the single in-flight relay
// slot, and voice playback. All mutation goes through its mutex, so appends
// are strictly ordered.
type Controller struct {
	sessionID  string
	relay      Replier
	recognizer voice.Recognizer
	speaker    *voice.Speaker
	transcript store.TranscriptStore
	timeout    time.Duration

	mu       sync.Mutex
	messages []chat.Message
	input    string
	typing   bool
	inFlight bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

func newController(sessionID string, relay Replier, recognizer voice.Recognizer, synth voice.Synthesizer, transcript store.TranscriptStore, timeout time.Duration) *Controller {
	c := &Controller{
		sessionID:  sessionID,
		relay:      relay,
		recognizer: recognizer,
		transcript: transcript,
		timeout:    timeout,
		subs:       make(map[chan Event]struct{}),
	}
	c.speaker = voice.NewSpeaker(synth, func(p voice.Playback) {
		c.publish(Event{Type: EventSpeaking, Speaking: p.Speaking})
		if p.Audio != nil {
			c.publish(Event{Type: EventAudio, Audio: p.Audio})
		}
	})

	// Restore the transcript persisted earlier in this session, if any.
	if saved, ok := transcript.Load(sessionID); ok {
		c.messages = saved
	}
	return c
}

// Submit runs one turn: append the user message, call the relay, append the
// reply (or the fallback on failure) and trigger playback of the reply. Only
// one submit may be in flight per conversation.
func (c *Controller) Submit(ctx context.Context, text string) (chat.Message, chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, chat.Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return chat.Message{}, chat.Message{}, ErrBusy
	}
	c.inFlight = true
	c.typing = true
	c.input = ""

	userMsg := c.appendLocked(chat.SenderUser, text)
	c.mu.Unlock()

	c.publish(Event{Type: EventMessage, Message: &userMsg})
	c.publish(Event{Type: EventTyping, Typing: true})

	var reply string
	err := errors.New("no relay configured")
	if c.relay != nil {
		relayCtx, cancel := context.WithTimeout(ctx, c.timeout)
		reply, err = c.relay.Reply(relayCtx, text)
		cancel()
	}

	replyText := reply
	failed := err != nil
	if failed {
		log.Printf("[conversation] relay failed for session=%s: %v", c.sessionID, err)
		replyText = FallbackReply
	}

	c.mu.Lock()
	botMsg := c.appendLocked(chat.SenderAssistant, replyText)
	c.typing = false
	c.inFlight = false
	c.mu.Unlock()

	c.publish(Event{Type: EventMessage, Message: &botMsg})
	c.publish(Event{Type: EventTyping, Typing: false})

	if !failed {
		// Playback outlives the request that triggered it.
		c.speaker.Speak(context.Background(), replyText)
	}

	return userMsg, botMsg, nil
}

// appendLocked stamps, appends and persists one message. Caller holds c.mu.
func (c *Controller) appendLocked(sender, text string) chat.Message {
	msg := chat.NewMessage(c.sessionID, sender, text)
	msg.ID = uuid.NewString()
	c.messages = append(c.messages, msg)
	c.transcript.Save(c.sessionID, c.messages)
	return msg
}

// Messages returns a copy of the transcript in append order.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Clear empties the transcript and its persisted copy. Safe to repeat.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.transcript.Clear(c.sessionID)
	c.mu.Unlock()

	c.publish(Event{Type: EventClear})
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the current input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// CaptureVoice transcribes one recorded utterance and writes the result into
// the input buffer, replacing whatever was typed before. Without a
// configured recognizer the capture is refused and no state changes.
func (c *Controller) CaptureVoice(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if c.recognizer == nil {
		return "", voice.ErrRecognizerUnavailable
	}

	text, err := c.recognizer.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", err
	}

	c.SetInput(text)
	return text, nil
}

// ToggleSpeech re-speaks the last utterance or cancels the current one,
// reporting the resulting speaking state. Playback is detached from the
// caller's lifetime so an HTTP request ending does not cut the utterance.
func (c *Controller) ToggleSpeech(ctx context.Context) bool {
	return c.speaker.Toggle(context.WithoutCancel(ctx))
}

// Speaking reports whether an utterance is in progress.
func (c *Controller) Speaking() bool {
	return c.speaker.Speaking()
}

// Typing reports whether a reply is pending.
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// LastAudio returns the most recently synthesized utterance audio.
func (c *Controller) LastAudio() []byte {
	return c.speaker.LastAudio()
}
