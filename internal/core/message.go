package core

import "time"

// Message is the domain model for a chat message, either room chat
// (persisted) or stream chat (ephemeral).
type Message struct {
	ID        int64
	Room      string
	StreamID  int64
	From      string
	FromID    int64
	IsGuest   bool
	Text      string
	CreatedAt time.Time
}
