package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/quizroom/internal/api"
	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/dependencies/random"
	"github.com/mcoot/quizroom/internal/services/auth"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/services/player"
	"github.com/mcoot/quizroom/internal/services/quiz"
	"github.com/mcoot/quizroom/internal/services/scoreboard"
	"github.com/mcoot/quizroom/internal/services/session"
	"github.com/mcoot/quizroom/internal/storage"
	"github.com/mcoot/quizroom/internal/storage/memory"
	redisstorage "github.com/mcoot/quizroom/internal/storage/redis"
	"github.com/mcoot/quizroom/internal/storage/sqlstore"
	"github.com/mcoot/quizroom/internal/subscription"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    *idgen.Generator

	// Services
	AuthService   *auth.Service
	Players       *player.Registry
	Sessions      *session.Registry
	Quiz          *quiz.Service
	Subscriptions *subscription.Manager
	Scoreboard    *scoreboard.Loop

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "sqlite" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the DSN for the sqlite and postgres backends
	DatabaseURL string
	// ScoreboardInterval is how often scoreboards are pushed (optional)
	ScoreboardInterval time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.ScoreboardInterval, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypeSQLite, StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DatabaseURL required when StorageType is %s", storageType)
		}
		driver := sqlstore.DriverSQLite
		if storageType == StorageTypePostgres {
			driver = sqlstore.DriverPostgres
		}
		store, err := sqlstore.Open(ctx, driver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be one of memory, redis, sqlite, postgres", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, interval time.Duration, logger *slog.Logger) *App {
	ids := idgen.New(rnd)
	players := player.NewRegistry(store, ids, clk, logger.With(slog.String("component", "player")))
	sessions := session.NewRegistry(store, players, ids, clk, logger.With(slog.String("component", "session")))
	authService := auth.New(store, ids, players, clk, logger.With(slog.String("component", "auth")))
	quizService := quiz.New(store, ids, clk, logger.With(slog.String("component", "quiz")))
	subs := subscription.NewManager(logger)
	loop := scoreboard.New(sessions, players, subs, clk, interval, logger)

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		IDs:           ids,
		AuthService:   authService,
		Players:       players,
		Sessions:      sessions,
		Quiz:          quizService,
		Subscriptions: subs,
		Scoreboard:    loop,
		logger:        logger,
	}
}

// Router builds the HTTP API over the app's services
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:        a.logger,
		AuthService:   a.AuthService,
		Sessions:      a.Sessions,
		Players:       a.Players,
		Quiz:          a.Quiz,
		Subscriptions: a.Subscriptions,
	})
}

// Close stops background work, disconnects subscribers and closes storage
func (a *App) Close() error {
	a.Scoreboard.Stop()
	a.Subscriptions.Close()
	return a.Storage.Close()
}
