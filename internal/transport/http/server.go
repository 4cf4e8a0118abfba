package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/soundwave-fm/realtime-server/internal/config"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

// NewServer builds the HTTP server hosting the websocket endpoint and the
// operational surface. Application controllers live elsewhere; this server
// only fronts the realtime gateway.
func NewServer(cfg config.Config, router *realtime.Router, auth realtime.Authenticator, metricsHandler stdhttp.Handler, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	engine.GET("/stats", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{
			"clients": router.ClientCount(),
			"users":   router.UserCount(),
			"rooms":   router.RoomCount(),
		})
	})
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}
	engine.GET("/ws", gin.WrapH(NewWSHandler(router, auth, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
