package core

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chatstream/chatstream-server/internal/store"
)

const (
	// MaxMessageLen is the upper bound on room message content, in runes.
	MaxMessageLen = 2000

	defaultPersistTimeout = 5 * time.Second
	defaultHistoryLimit   = 50
)

// Hub is the single entry point for inbound commands. Each registered
// connection gets its own goroutine consuming its Commands channel, so
// commands from different connections run concurrently while commands
// from one connection stay ordered. Room and stream mutations serialize
// per key inside Rooms and Presence.
type Hub struct {
	registry *Registry
	rooms    *Rooms
	presence *Presence
	relay    *Relay
	gateway  Gateway
	log      *zerolog.Logger

	// PersistTimeout bounds every gateway call; a timeout is reported to
	// the caller as a persistence failure. Set before Run.
	PersistTimeout time.Duration

	// HistoryLimit is how many recent messages a joining connection gets.
	HistoryLimit int
}

// NewHub constructs the hub with its component graph. A nil logger is
// replaced with a no-op one.
func NewHub(gateway Gateway, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	registry := NewRegistry()
	presence := NewPresence(registry)
	return &Hub{
		registry:       registry,
		rooms:          NewRooms(registry),
		presence:       presence,
		relay:          NewRelay(registry, presence, logger),
		gateway:        gateway,
		log:            logger,
		PersistTimeout: defaultPersistTimeout,
		HistoryLimit:   defaultHistoryLimit,
	}
}

// Registry exposes the connection registry for transports and handlers.
func (h *Hub) Registry() *Registry { return h.registry }

// Presence exposes the viewer counter, e.g. for REST viewer-count reads.
func (h *Hub) Presence() *Presence { return h.presence }

// Run blocks until ctx is cancelled, then disconnects every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	for _, c := range h.registry.Snapshot() {
		h.UnregisterClient(c)
	}
}

// RegisterClient adds the connection, announces it to everyone and
// starts its command loop.
func (h *Hub) RegisterClient(c *Client) {
	h.registry.Add(c)
	go h.serveClient(c)
	h.registry.BroadcastAll(&Event{Kind: EventUserConnected, User: c.Name})
	h.log.Debug().Str("conn_id", c.ID).Str("user", c.Name).Msg("client registered")
}

// UnregisterClient stops the command loop, waits for it to exit, and
// then runs the disconnect cascade. The wait guarantees no buffered
// command can mutate membership after the cascade has taken its
// snapshot of the connection's rooms and streams. Safe to call more
// than once.
func (h *Hub) UnregisterClient(c *Client) {
	c.stop()
	<-c.loopDone
	h.Disconnect(c.ID)
}

// Disconnect removes the connection from the registry, then from every
// room and stream it belonged to, and finally announces the departure.
// A second disconnect for the same id is a no-op. The cascade acquires
// the same per-room and per-stream locks joins use, so a broadcast never
// reads a membership set mid-cleanup.
func (h *Hub) Disconnect(connID string) {
	c := h.registry.Remove(connID)
	if c == nil {
		return
	}
	for _, key := range c.roomList() {
		h.rooms.Drop(c, key)
	}
	for _, streamID := range c.streamList() {
		h.presence.LeaveViewer(c, streamID)
	}
	h.registry.BroadcastAll(&Event{Kind: EventUserDisconnected, User: c.Name})
	h.log.Debug().Str("conn_id", connID).Str("user", c.Name).Msg("client disconnected")
}

func (h *Hub) serveClient(c *Client) {
	defer close(c.loopDone)
	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.Commands:
			h.dispatch(c, cmd)
		}
	}
}

// dispatch matches the closed command set exhaustively.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoinRoom(c, cmd.Room)
	case CommandLeaveRoom:
		h.rooms.Leave(c, cmd.Room)
	case CommandSendMessage:
		h.handleSendMessage(c, cmd.Room, cmd.Text)
	case CommandStartStream:
		h.handleStartStream(c, cmd.Title, cmd.Description)
	case CommandEndStream:
		h.handleEndStream(c, cmd.StreamID)
	case CommandJoinStreamViewer:
		h.presence.JoinViewer(c, cmd.StreamID)
	case CommandLeaveStreamViewer:
		h.presence.LeaveViewer(c, cmd.StreamID)
	case CommandSendStreamChat:
		h.handleStreamChat(c, cmd.StreamID, cmd.Text)
	case CommandSendOffer:
		h.relay.ToStream(cmd.StreamID, c, EventReceiveOffer, cmd.Payload)
	case CommandSendAnswer:
		h.relay.ToConnection(cmd.Target, c, EventReceiveAnswer, cmd.Payload)
	case CommandSendIceCandidate:
		if cmd.Target == BroadcastTarget {
			h.relay.ToOthers(c, EventReceiveIceCandidate, cmd.Payload)
		} else {
			h.relay.ToConnection(cmd.Target, c, EventReceiveIceCandidate, cmd.Payload)
		}
	default:
		h.sendError(c, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) handleJoinRoom(c *Client, name string) {
	if name == "" {
		h.sendError(c, ErrCodeValidation, "room is required")
		return
	}
	h.rooms.Join(c, name)

	ctx, cancel := h.persistCtx()
	defer cancel()
	msgs, err := h.gateway.GetRecentMessages(ctx, name, h.HistoryLimit)
	if err != nil {
		h.log.Warn().Err(err).Str("room", name).Msg("history fetch failed")
		h.sendError(c, ErrCodePersistenceFailure, "could not load history")
		return
	}
	c.send(&Event{Kind: EventMessageHistory, Room: name, Messages: fromStoreMessages(name, msgs)})
}

func (h *Hub) handleSendMessage(c *Client, name, text string) {
	if name == "" {
		h.sendError(c, ErrCodeValidation, "room is required")
		return
	}
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxMessageLen {
		h.sendError(c, ErrCodeValidation, "message must be 1-2000 characters")
		return
	}

	// Persist before broadcast: a failed save reaches the caller only.
	ctx, cancel := h.persistCtx()
	defer cancel()
	saved, err := h.gateway.SaveMessage(ctx, name, c.UserID, text)
	if err != nil {
		h.log.Warn().Err(err).Str("room", name).Msg("message save failed")
		h.sendError(c, ErrCodePersistenceFailure, "could not save message")
		return
	}

	h.rooms.Broadcast(name, &Event{
		Kind: EventReceiveMessage,
		Room: name,
		Message: Message{
			ID:        saved.ID,
			Room:      name,
			From:      c.Name,
			FromID:    c.UserID,
			IsGuest:   c.IsGuest,
			Text:      text,
			CreatedAt: saved.CreatedAt,
		},
	})
}

func (h *Hub) handleStartStream(c *Client, title, description string) {
	if c.IsGuest {
		h.sendError(c, ErrCodeUnauthorized, "guests cannot start streams")
		return
	}
	if title == "" {
		h.sendError(c, ErrCodeValidation, "title is required")
		return
	}

	ctx, cancel := h.persistCtx()
	defer cancel()
	sess, err := h.gateway.CreateStreamSession(ctx, c.UserID, title, description)
	if err != nil {
		if errors.Is(err, store.ErrStreamLive) {
			h.sendError(c, ErrCodeConflict, "user already has an active stream")
			return
		}
		h.log.Warn().Err(err).Int64("streamer", c.UserID).Msg("stream create failed")
		h.sendError(c, ErrCodePersistenceFailure, "could not start stream")
		return
	}

	h.registry.BroadcastAll(&Event{
		Kind: EventStreamStarted,
		Stream: &StreamInfo{
			ID:        sess.ID,
			Title:     sess.Title,
			Streamer:  c.Name,
			StreamKey: sess.StreamKey,
		},
	})
}

func (h *Hub) handleEndStream(c *Client, streamID int64) {
	if c.IsGuest {
		h.sendError(c, ErrCodeUnauthorized, "guests cannot end streams")
		return
	}

	ctx, cancel := h.persistCtx()
	defer cancel()
	ended, err := h.gateway.EndStreamSession(ctx, streamID, c.UserID)
	if err != nil {
		h.log.Warn().Err(err).Int64("stream_id", streamID).Msg("stream end failed")
		h.sendError(c, ErrCodePersistenceFailure, "could not end stream")
		return
	}
	if !ended {
		h.sendError(c, ErrCodeNotFound, "no live stream with that id for this user")
		return
	}

	h.registry.BroadcastAll(&Event{
		Kind:   EventStreamEnded,
		Stream: &StreamInfo{ID: streamID},
	})
}

func (h *Hub) handleStreamChat(c *Client, streamID int64, text string) {
	if text == "" {
		return
	}
	h.presence.Broadcast(streamID, &Event{
		Kind: EventStreamChatMessage,
		Message: Message{
			StreamID:  streamID,
			From:      c.Name,
			FromID:    c.UserID,
			IsGuest:   c.IsGuest,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		},
	})
}

func (h *Hub) sendError(c *Client, code, msg string) {
	c.send(&Event{Kind: EventError, Error: coreError(code, msg)})
}

func (h *Hub) persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.PersistTimeout)
}

func fromStoreMessages(room string, msgs []*store.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{
			ID:        m.ID,
			Room:      room,
			From:      m.SenderName,
			FromID:    m.SenderID,
			IsGuest:   m.IsGuest,
			Text:      m.Body,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
