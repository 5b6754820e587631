package conversation

import "github.com/prescripto/medibot-backend/internal/model/chat"

// Event types published to transcript subscribers.
const (
	EventMessage  = "message"
	EventTyping   = "typing"
	EventSpeaking = "speaking"
	EventAudio    = "audio"
	EventClear    = "clear"
)

// Event is one state change of a conversation, delivered to subscribers in
// mutation order. Audio carries a finished utterance (base64 over JSON).
type Event struct {
	Type     string        `json:"type"`
	Message  *chat.Message `json:"message,omitempty"`
	Typing   bool          `json:"typing,omitempty"`
	Speaking bool          `json:"speaking,omitempty"`
	Audio    []byte        `json:"audio,omitempty"`
}

const subscriberBuffer = 16

// subscribe registers an event channel. The returned func removes it.
func (c *Controller) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		delete(c.subs, ch)
		c.subMu.Unlock()
	}
}

// Subscribe exposes the event stream for transport handlers.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.subscribe()
}

// publish fans an event out without ever blocking the conversation. A
// subscriber that cannot keep up loses events rather than stalling appends.
func (c *Controller) publish(event Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for ch := range c.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
