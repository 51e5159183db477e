package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatstream/chatstream-server/internal/auth"
	"github.com/chatstream/chatstream-server/internal/config"
	"github.com/chatstream/chatstream-server/internal/core"
	"github.com/chatstream/chatstream-server/internal/store"
)

// NewServer builds the HTTP server: REST API, health check, and the
// WebSocket entry into the hub.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	streamHandlers := NewStreamHandlers(st, hub.Presence(), logger)

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.Guest)
		api.POST("/refresh", apiHandlers.Refresh)
		api.POST("/streams/validate-key", streamHandlers.ValidateStreamKey)

		authed := api.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.GET("/me", apiHandlers.Me)
			authed.GET("/rooms", roomHandlers.ListRooms)
			authed.POST("/rooms", roomHandlers.CreateRoom)
			authed.GET("/rooms/:name/messages", roomHandlers.GetRoomMessages)
			authed.GET("/streams", streamHandlers.ListActiveStreams)
			authed.GET("/streams/:id", streamHandlers.GetStream)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	fmt.Fprint(c.Writer, "ok")
}
