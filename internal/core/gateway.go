package core

import (
	"context"

	"github.com/chatstream/chatstream-server/internal/store"
)

// Gateway is the persistence surface the hub depends on. The sqlite
// store satisfies it; tests use an in-memory fake. Calls are bounded by
// the hub's persist timeout, and a timed-out call counts as a
// persistence failure.
type Gateway interface {
	// SaveMessage persists a room chat message, creating the room on
	// first use, and returns the stored record with id and timestamp.
	SaveMessage(ctx context.Context, room string, senderID int64, body string) (*store.Message, error)

	// GetRecentMessages returns up to limit most recent messages for the
	// room, oldest first. An unknown room yields an empty slice.
	GetRecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error)

	// CreateStreamSession creates a live stream session. Returns
	// store.ErrStreamLive when the streamer already has one live.
	CreateStreamSession(ctx context.Context, streamerID int64, title, description string) (*store.StreamSession, error)

	// EndStreamSession ends the session if it is live and owned by
	// streamerID. The bool reports whether a session was ended.
	EndStreamSession(ctx context.Context, streamID, streamerID int64) (bool, error)
}
