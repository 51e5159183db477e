package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatstream/chatstream-server/internal/core"
	"github.com/chatstream/chatstream-server/internal/store"
)

// StreamHandlers provides HTTP handlers for stream endpoints.
type StreamHandlers struct {
	store    store.StreamStore
	presence *core.Presence
	log      *zerolog.Logger
}

// NewStreamHandlers creates a new stream handlers instance.
func NewStreamHandlers(st store.StreamStore, presence *core.Presence, logger *zerolog.Logger) *StreamHandlers {
	return &StreamHandlers{
		store:    st,
		presence: presence,
		log:      logger,
	}
}

// StreamResponse represents a stream session in API responses.
// The stream key is only exposed through the hub to the streamer.
type StreamResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	StreamerName string `json:"streamer_name"`
	Status       string `json:"status"`
	StartedAt    string `json:"started_at"`
	ViewerCount  int    `json:"viewer_count"`
}

// ListActiveStreams lists live streams, newest first.
// GET /api/streams
func (h *StreamHandlers) ListActiveStreams(c *gin.Context) {
	sessions, err := h.store.ListActiveStreams(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list streams")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]StreamResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.toResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// GetStream returns one stream session.
// GET /api/streams/:id
func (h *StreamHandlers) GetStream(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stream id"})
		return
	}

	sess, err := h.store.GetStream(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "stream not found"})
			return
		}
		h.log.Error().Err(err).Int64("stream_id", id).Msg("failed to load stream")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(sess))
}

// ValidateKeyRequest represents the stream key validation request body.
type ValidateKeyRequest struct {
	StreamKey string `json:"stream_key" binding:"required"`
}

// ValidateKeyResponse reports whether a stream key belongs to a live
// session.
type ValidateKeyResponse struct {
	IsValid  bool  `json:"is_valid"`
	StreamID int64 `json:"stream_id,omitempty"`
}

// ValidateStreamKey checks a stream key against live sessions. Meant
// for ingest-side callers that hold a key but no session id.
// POST /api/streams/validate-key
func (h *StreamHandlers) ValidateStreamKey(c *gin.Context) {
	var req ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.store.GetStreamByKey(c.Request.Context(), req.StreamKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, ValidateKeyResponse{IsValid: false})
			return
		}
		h.log.Error().Err(err).Msg("failed to validate stream key")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ValidateKeyResponse{IsValid: true, StreamID: sess.ID})
}

func (h *StreamHandlers) toResponse(s *store.StreamSession) StreamResponse {
	return StreamResponse{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		StreamerName: s.StreamerName,
		Status:       string(s.Status),
		StartedAt:    s.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ViewerCount:  h.presence.Count(s.ID),
	}
}
