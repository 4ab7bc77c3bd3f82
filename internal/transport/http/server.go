package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/config"
	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
)

// NewServer builds the HTTP server exposing the board's JSON API.
func NewServer(board *core.Board, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(board, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(board *core.Board, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// Forwarding headers count only when the peer is a configured proxy.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))

	rooms := NewRoomHandlers(board, logger)
	messages := NewMessageHandlers(board, logger)

	api := router.Group("/api")
	{
		api.GET("/health", rooms.Health)

		api.GET("/rooms", rooms.ListRooms)
		api.POST("/rooms", rooms.CreateRoom)
		api.GET("/rooms/:room", rooms.GetRoom)

		api.GET("/rooms/:room/messages", messages.ListMessages)
		api.POST("/rooms/:room/messages", messages.PostMessage)

		api.DELETE("/messages/:id", messages.DeleteMessage)
		api.GET("/messages/:id/trace", messages.TraceMessage)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, proto.Error{Error: "route not found", Code: core.ErrCodeNotFound})
	})

	return router
}
