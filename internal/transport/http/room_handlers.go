package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatstream/chatstream-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room endpoints.
type RoomHandlers struct {
	store store.ChatStore
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.ChatStore, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the room creation request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse represents a persisted message in API responses.
type MessageResponse struct {
	ID         int64  `json:"id"`
	SenderName string `json:"sender_name"`
	SenderID   int64  `json:"sender_id"`
	IsGuest    bool   `json:"is_guest"`
	Content    string `json:"content"`
	SentAt     string `json:"sent_at"`
}

// ListRooms lists all known rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomResponse{
			ID:        room.ID,
			Name:      room.Name,
			CreatedAt: room.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateRoom creates a room, returning the existing one when the name
// is already taken (names are case-insensitive). Guests cannot create
// rooms.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	if c.GetBool(ContextKeyIsGuest) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "guests cannot create rooms"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.GetOrCreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("room", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// GetRoomMessages returns recent messages for a room, oldest first.
// GET /api/rooms/:name/messages?limit=50
func (h *RoomHandlers) GetRoomMessages(c *gin.Context) {
	name := c.Param("name")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	msgs, err := h.store.GetRecentMessages(c.Request.Context(), name, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("failed to load messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageResponse{
			ID:         m.ID,
			SenderName: m.SenderName,
			SenderID:   m.SenderID,
			IsGuest:    m.IsGuest,
			Content:    m.Body,
			SentAt:     m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, out)
}
