package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/health"
	"github.com/wrale/arcade-auth/internal/accounts"
	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/codestore"
	"github.com/wrale/arcade-auth/internal/deviceflow"
	"github.com/wrale/arcade-auth/internal/leaderboard"
	"github.com/wrale/arcade-auth/internal/metrics"
	"github.com/wrale/arcade-auth/internal/ratelimit"
	"github.com/wrale/arcade-auth/internal/sessionflow"
	"github.com/wrale/arcade-auth/internal/store"
)

const connectTimeout = 5 * time.Second

// app owns every long-lived component. Close releases them in reverse order
// of construction.
type app struct {
	cfg    Config
	logger *slog.Logger

	tokens   *auth.TokenService
	codes    *codestore.Store
	users    store.Store
	limiter  ratelimit.Limiter
	redis    *redis.Client
	metrics  *metrics.Metrics
	accounts *accounts.Service
	board    *leaderboard.Service
	device   deviceflow.Flow
	session  *sessionflow.Flow

	hasher auth.PasswordHasher
	clock  func() time.Time
}

type appOption func(*app)

func withHasher(h auth.PasswordHasher) appOption {
	return func(a *app) { a.hasher = h }
}

func withClock(now func() time.Time) appOption {
	return func(a *app) { a.clock = now }
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger, opts ...appOption) (_ *app, err error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		hasher:  auth.NewBcryptHasher(),
		clock:   time.Now,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.tokens, err = auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	if err := a.openLimiter(ctx); err != nil {
		return nil, err
	}

	a.codes = codestore.New(
		codestore.WithTTL(cfg.CodeTTL),
		codestore.WithPollInterval(cfg.PollInterval),
		codestore.WithSweepInterval(cfg.SweepInterval),
		codestore.WithTerminalGrace(cfg.TerminalGrace),
		codestore.WithClock(a.clock),
		codestore.WithLogger(logger.With("component", "codestore")),
		codestore.WithRecorder(a.metrics),
	)
	a.codes.Start()

	a.accounts = accounts.NewService(a.users, a.hasher, a.tokens, logger.With("component", "accounts"))
	a.board = leaderboard.NewService(a.users)
	a.device = deviceflow.NewFlow(a.codes, a.accounts, a.tokens, cfg.BaseURL,
		deviceflow.WithLogger(logger.With("component", "deviceflow")))
	a.session = sessionflow.NewFlow(a.codes, cfg.BaseURL,
		sessionflow.WithLogger(logger.With("component", "sessionflow")))

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		a.logger.Info("using in-memory store")
		a.users = store.NewMemory()
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := store.Connect(connectCtx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.users = store.NewPostgres(pool)

	if err := store.Migrate(ctx, pool, a.logger); err != nil {
		return err
	}
	a.logger.Info("using postgres store")
	return nil
}

func (a *app) openLimiter(ctx context.Context) error {
	if a.cfg.RedisURL == "" {
		a.limiter = ratelimit.NewMemory(a.cfg.AuthRateLimit, a.cfg.AuthRateWindow)
		return nil
	}

	redisOpts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrapf(err, "parsing redis url")
	}
	a.redis = redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return oops.Code("REDIS_CONNECT").Wrapf(err, "connecting to redis")
	}

	a.limiter = ratelimit.NewRedis(a.redis, a.cfg.AuthRateLimit, a.cfg.AuthRateWindow,
		a.logger.With("component", "ratelimit"))
	return nil
}

// healthCheckers names every dependency reported by /health.
func (a *app) healthCheckers() map[string]health.Checker {
	checkers := map[string]health.Checker{
		"codes":    a.codes,
		"database": a.users,
	}
	if a.redis != nil {
		checkers["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	return checkers
}

// Close stops the sweep and releases connections.
func (a *app) Close() {
	if a.codes != nil {
		a.codes.Stop()
	}
	// The Redis limiter owns and closes the client.
	if a.limiter != nil {
		a.limiter.Close()
	} else if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.users != nil {
		a.users.Close()
	}
}
