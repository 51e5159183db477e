package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chatstream/chatstream-server/internal/store"
	"github.com/chatstream/chatstream-server/internal/utils"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// instead of the embedded schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new registered user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a registered user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE username = ? AND is_guest = 0
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== ChatStore implementation ====

// GetOrCreateRoom returns the room with that name, creating it lazily.
func (s *SQLiteStore) GetOrCreateRoom(ctx context.Context, name string) (*store.Room, error) {
	room, err := s.getRoomByName(ctx, name)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO rooms (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Room{ID: id, Name: name, CreatedAt: time.Now().UTC()}, nil
}

func (s *SQLiteStore) getRoomByName(ctx context.Context, name string) (*store.Room, error) {
	query := `
		SELECT id, name, created_at
		FROM rooms
		WHERE name = ? COLLATE NOCASE
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, name).Scan(&room.ID, &room.Name, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ListRooms lists all known rooms.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// SaveMessage persists a message, creating the room on first use.
func (s *SQLiteStore) SaveMessage(ctx context.Context, roomName string, senderID int64, body string) (*store.Message, error) {
	room, err := s.GetOrCreateRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (room_id, sender_id, body, created_at) VALUES (?, ?, ?, ?)`,
		room.ID, senderID, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Message{
		ID:        id,
		RoomID:    room.ID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: now,
	}, nil
}

// GetRecentMessages returns up to limit most recent messages, oldest first.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, roomName string, limit int) ([]*store.Message, error) {
	room, err := s.getRoomByName(ctx, roomName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []*store.Message{}, nil
		}
		return nil, err
	}

	query := `
		SELECT m.id, m.room_id, m.sender_id, u.username, u.is_guest, m.body, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = ?
		ORDER BY m.id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.SenderName, &m.IsGuest, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest first; history is delivered oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ==== StreamStore implementation ====

// CreateStreamSession creates a live session with a fresh stream key.
func (s *SQLiteStore) CreateStreamSession(ctx context.Context, streamerID int64, title, description string) (*store.StreamSession, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM stream_sessions WHERE streamer_id = ? AND status = 'live'`,
		streamerID,
	).Scan(&existing)
	if err == nil {
		return nil, store.ErrStreamLive
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query live stream: %w", err)
	}

	now := time.Now().UTC()
	key := utils.NewStreamKey()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO stream_sessions (streamer_id, title, description, stream_key, status, started_at)
		 VALUES (?, ?, ?, ?, 'live', ?)`,
		streamerID, title, description, key, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert stream session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.StreamSession{
		ID:          id,
		StreamerID:  streamerID,
		Title:       title,
		Description: description,
		StreamKey:   key,
		Status:      store.StreamStatusLive,
		StartedAt:   now,
	}, nil
}

// EndStreamSession marks the session ended if live and owned by streamerID.
func (s *SQLiteStore) EndStreamSession(ctx context.Context, streamID, streamerID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE stream_sessions SET status = 'ended', ended_at = ?
		 WHERE id = ? AND streamer_id = ? AND status = 'live'`,
		time.Now().UTC(), streamID, streamerID,
	)
	if err != nil {
		return false, fmt.Errorf("end stream session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetStream retrieves a session by ID.
func (s *SQLiteStore) GetStream(ctx context.Context, id int64) (*store.StreamSession, error) {
	query := `
		SELECT s.id, s.streamer_id, u.username, s.title, s.description, s.stream_key, s.status, s.started_at, s.ended_at
		FROM stream_sessions s
		JOIN users u ON u.id = s.streamer_id
		WHERE s.id = ?
	`
	var sess store.StreamSession
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.StreamerID,
		&sess.StreamerName,
		&sess.Title,
		&sess.Description,
		&sess.StreamKey,
		&sess.Status,
		&sess.StartedAt,
		&sess.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query stream: %w", err)
	}
	return &sess, nil
}

// GetStreamByKey retrieves the live session with that stream key.
func (s *SQLiteStore) GetStreamByKey(ctx context.Context, key string) (*store.StreamSession, error) {
	query := `
		SELECT s.id, s.streamer_id, u.username, s.title, s.description, s.stream_key, s.status, s.started_at, s.ended_at
		FROM stream_sessions s
		JOIN users u ON u.id = s.streamer_id
		WHERE s.stream_key = ? AND s.status = 'live'
	`
	var sess store.StreamSession
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&sess.ID,
		&sess.StreamerID,
		&sess.StreamerName,
		&sess.Title,
		&sess.Description,
		&sess.StreamKey,
		&sess.Status,
		&sess.StartedAt,
		&sess.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query stream by key: %w", err)
	}
	return &sess, nil
}

// ListActiveStreams lists live sessions, newest first.
func (s *SQLiteStore) ListActiveStreams(ctx context.Context) ([]*store.StreamSession, error) {
	query := `
		SELECT s.id, s.streamer_id, u.username, s.title, s.description, s.stream_key, s.status, s.started_at, s.ended_at
		FROM stream_sessions s
		JOIN users u ON u.id = s.streamer_id
		WHERE s.status = 'live'
		ORDER BY s.started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()

	var sessions []*store.StreamSession
	for rows.Next() {
		var sess store.StreamSession
		if err := rows.Scan(
			&sess.ID,
			&sess.StreamerID,
			&sess.StreamerName,
			&sess.Title,
			&sess.Description,
			&sess.StreamKey,
			&sess.Status,
			&sess.StartedAt,
			&sess.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}
