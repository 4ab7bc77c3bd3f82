package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/config"
	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/ratelimit"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/store/postgres"
	"github.com/vovakirdan/coderooms-server/internal/store/sqlite"
	"github.com/vovakirdan/coderooms-server/internal/trace"
	transporthttp "github.com/vovakirdan/coderooms-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	board           *core.Board
	store           store.Store
	sweeper         *ratelimit.Memory
	sweepInterval   time.Duration
	redis           *goredis.Client
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. Storage or
// seeding failures abort construction.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	limiter, err := a.newLimiter(ctx, cfg)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}

	admin, err := newAdminCredential(cfg)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("init admin credential: %w", err)
	}
	if !admin.Enabled() {
		logger.Warn().Msg("no admin token configured, privileged delete is disabled")
	}

	a.board = core.NewBoard(st, limiter, trace.NewFingerprinter(cfg.TraceSalt), admin, logger)

	created, err := a.board.Seed(ctx, cfg.Rooms)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("seed rooms: %w", err)
	}
	logger.Info().Int("created", created).Int("configured", len(cfg.Rooms)).Msg("rooms seeded")

	a.server = transporthttp.NewServer(a.board, cfg, logger)
	return a, nil
}

// OpenStore opens the store selected by cfg.Database.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverSQLite:
		return sqlite.New(cfg.Database.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func (a *App) newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, error) {
	rl := cfg.RateLimit
	if rl.Max <= 0 {
		a.log.Warn().Msg("rate limiting disabled")
		return ratelimit.Unlimited{}, nil
	}

	switch strings.ToLower(rl.Backend) {
	case config.RateLimitRedis:
		client := goredis.NewClient(&goredis.Options{Addr: rl.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.redis = client
		a.log.Info().Str("addr", rl.RedisAddr).Int("max", rl.Max).Dur("window", rl.Window).Msg("using redis rate limiter")
		return ratelimit.NewRedis(client, rl.RedisPrefix, rl.Max, rl.Window), nil
	default:
		mem := ratelimit.NewMemory(rl.Max, rl.Window)
		a.sweeper = mem
		a.sweepInterval = rl.SweepInterval
		a.log.Info().Int("max", rl.Max).Dur("window", rl.Window).Msg("using in-memory rate limiter")
		return mem, nil
	}
}

func newAdminCredential(cfg *config.Config) (*auth.AdminCredential, error) {
	if cfg.AdminTokenHash != "" {
		return auth.NewAdminCredentialFromHash(cfg.AdminTokenHash)
	}
	return auth.NewAdminCredential(cfg.AdminToken)
}

// Board exposes the wired board.
func (a *App) Board() *core.Board {
	return a.board
}

// Handler exposes the HTTP handler.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	if a.sweeper != nil {
		g.Go(func() error {
			a.sweeper.Run(gctx, a.sweepInterval)
			return nil
		})
	}

	return g.Wait()
}

// Close releases resources without running the server.
func (a *App) Close() {
	a.cleanup()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
		a.redis = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
		a.store = nil
	}
}
