package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundwave-fm/realtime-server/internal/auth"
	"github.com/soundwave-fm/realtime-server/internal/bus"
	"github.com/soundwave-fm/realtime-server/internal/config"
	"github.com/soundwave-fm/realtime-server/internal/metrics"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
	transporthttp "github.com/soundwave-fm/realtime-server/internal/transport/http"
)

// App wires together the realtime core and its transports.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	router          *realtime.Router
	fanout          *realtime.Fanout
	bus             *bus.Redis
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	verifier := auth.NewVerifier(&auth.TokenConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	hooks := metrics.NewHooks()
	registry := realtime.NewRegistry()

	var eventBus *bus.Redis
	if cfg.RedisAddr != "" {
		var err error
		eventBus, err = bus.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB, logger)
		if err != nil {
			return nil, fmt.Errorf("connect event bus: %w", err)
		}
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("event bus connected")
	} else {
		logger.Info().Msg("no redis configured, running single-instance")
	}

	var busPort realtime.Bus
	if eventBus != nil {
		busPort = eventBus
	}
	fanout := realtime.NewFanout(registry, busPort, hooks, logger)
	router := realtime.NewRouter(registry, fanout, hooks, logger)

	server := transporthttp.NewServer(*cfg, router, verifier, hooks.Handler(), logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		router:          router,
		fanout:          fanout,
		bus:             eventBus,
		log:             logger,
	}, nil
}

// Router exposes the gateway surface (send-to-user, send-to-room,
// broadcast, presence queries) to embedding code.
func (a *App) Router() *realtime.Router {
	return a.router
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	if a.bus != nil {
		go a.bus.Subscribe(ctx, a.fanout.Deliver)
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the event bus and other resources.
func (a *App) cleanup() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close event bus")
		} else {
			a.log.Info().Msg("event bus closed")
		}
	}
}
