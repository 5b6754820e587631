package chat

import "time"

// Sender values for Message.Sender.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one turn of the conversation transcript. Text is stored
// verbatim; bullet markers emitted by the model are a rendering concern.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a transcript entry. Timestamp is the human-readable
// label shown next to the bubble and is never recomputed after creation.
func NewMessage(sessionID, sender, text string) Message {
	now := time.Now()
	return Message{
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		Timestamp: now.Format(time.Kitchen),
		CreatedAt: now.UTC(),
	}
}
