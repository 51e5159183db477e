package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStreamLive is returned when a streamer already has a live session.
	ErrStreamLive = errors.New("streamer already has a live stream")
)

// User represents a user in the system. Guests are real user rows with
// is_guest set, so messages from guests keep a valid sender reference.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // guest session tracking
	CreatedAt    time.Time
}

// Room represents a chat room. Names are unique case-insensitively.
type Room struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Message represents a persisted chat message, with the sender's
// display fields denormalized for history delivery.
type Message struct {
	ID         int64
	RoomID     int64
	SenderID   int64
	SenderName string
	IsGuest    bool
	Body       string
	CreatedAt  time.Time
}

// StreamStatus defines the lifecycle of a stream session.
type StreamStatus string

const (
	StreamStatusLive  StreamStatus = "live"
	StreamStatusEnded StreamStatus = "ended"
)

// StreamSession represents a live-stream session.
type StreamSession struct {
	ID           int64
	StreamerID   int64
	StreamerName string
	Title        string
	Description  string
	StreamKey    string
	Status       StreamStatus
	StartedAt    time.Time
	EndedAt      *time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new registered user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a registered user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// ChatStore handles room and message persistence.
type ChatStore interface {
	// GetOrCreateRoom returns the room with that name, creating it on
	// first use. Lookup is case-insensitive.
	GetOrCreateRoom(ctx context.Context, name string) (*Room, error)

	// ListRooms lists all known rooms.
	ListRooms(ctx context.Context) ([]*Room, error)

	// SaveMessage persists a message into the named room, creating the
	// room if needed, and returns the stored record.
	SaveMessage(ctx context.Context, room string, senderID int64, body string) (*Message, error)

	// GetRecentMessages returns up to limit most recent messages for the
	// room, oldest first. Unknown rooms yield an empty slice.
	GetRecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)
}

// StreamStore handles stream session persistence.
type StreamStore interface {
	// CreateStreamSession creates a live session with a fresh stream
	// key. Returns ErrStreamLive when the streamer already has one live.
	CreateStreamSession(ctx context.Context, streamerID int64, title, description string) (*StreamSession, error)

	// EndStreamSession marks the session ended if it is live and owned
	// by streamerID. The bool reports whether a session was ended.
	EndStreamSession(ctx context.Context, streamID, streamerID int64) (bool, error)

	// GetStream retrieves a session by ID.
	GetStream(ctx context.Context, id int64) (*StreamSession, error)

	// GetStreamByKey retrieves the live session with that stream key.
	// Ended sessions do not match.
	GetStreamByKey(ctx context.Context, key string) (*StreamSession, error)

	// ListActiveStreams lists live sessions, newest first.
	ListActiveStreams(ctx context.Context) ([]*StreamSession, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	StreamStore

	// Close closes the underlying database connection.
	Close() error
}
