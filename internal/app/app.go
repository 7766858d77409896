package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/relay"
	"github.com/vovakirdan/chatrelay-server/internal/relay/redispub"
	"github.com/vovakirdan/chatrelay-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatrelay-server/internal/transport/http"
)

// App wires together core, relay and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	relay           core.Relay
	redisRelay      *redispub.Relay // nil when running single-process
	store           *sqlite.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	// The chat directory is in-memory for the process lifetime; the
	// database is opened at bootstrap for features that persist.
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	origin := uuid.NewString()

	var (
		rly        core.Relay = relay.NewNoop()
		redisRelay *redispub.Relay
	)
	if cfg.RedisAddr != "" {
		redisRelay, err = redispub.New(cfg.RedisAddr, origin, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init relay: %w", err)
		}
		rly = redisRelay
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("relay connected")
	}

	hub := core.NewHub(rly, origin, logger)
	server := transporthttp.NewServer(hub, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		relay:           rly,
		redisRelay:      redisRelay,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)
	if a.redisRelay != nil {
		go a.redisRelay.Listen(ctx, a.hub.DeliverRemote)
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

// cleanup closes the relay, database and other resources.
func (a *App) cleanup() {
	if err := a.relay.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close relay")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
