package chat

import "time"

// Session captures one anonymous conversation, scoped to a browser session.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
