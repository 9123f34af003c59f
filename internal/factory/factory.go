package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/services/presence"
	"github.com/mcoot/rpsgame/internal/services/rooms"
	"github.com/mcoot/rpsgame/internal/services/round"
	"github.com/mcoot/rpsgame/internal/services/users"
	"github.com/mcoot/rpsgame/internal/storage"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/storage/postgres"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
	"github.com/mcoot/rpsgame/internal/stream"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Users    storage.Users
	Ledger   storage.Ledger
	Realtime storage.Realtime

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	UserService     *users.Service
	RoomService     *rooms.Service
	RoundEngine     *round.Engine
	PresenceService *presence.Service
	HubManager      *stream.HubManager

	logger  *slog.Logger
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// RealtimeType selects the realtime room store ("memory" or "redis")
	// If empty, defaults to "memory"
	RealtimeType string
	// LedgerType selects where users, room index, score and history live
	// ("memory", "redis" or "postgres"). If empty, defaults to "memory"
	LedgerType string
	// RedisConfig holds Redis connection settings (required if either type is "redis")
	RedisConfig *redisstorage.Config
	// PostgresDSN is the connection string (required if LedgerType is "postgres")
	PostgresDSN string
}

// backends holds the stores opened for one App
type backends struct {
	users    storage.Users
	ledger   storage.Ledger
	realtime storage.Realtime
	closers  []io.Closer
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(b.users, b.ledger, b.realtime, clock.New(), random.New(), logger)
	app.closers = b.closers
	return app, nil
}

// openBackends connects the selected stores. One memory store or redis
// client is shared when several roles pick the same backend.
func openBackends(ctx context.Context, cfg Config) (*backends, error) {
	realtimeType := orDefault(cfg.RealtimeType, StorageTypeMemory)
	ledgerType := orDefault(cfg.LedgerType, StorageTypeMemory)

	b := &backends{}
	var mem *memory.Storage
	var rds *redisstorage.Storage

	memoryStore := func() *memory.Storage {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}
	redisStore := func() (*redisstorage.Storage, error) {
		if rds != nil {
			return rds, nil
		}
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when a storage type is redis")
		}
		s, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rds = s
		b.closers = append(b.closers, s)
		return s, nil
	}

	switch realtimeType {
	case StorageTypeMemory:
		b.realtime = memoryStore()
	case StorageTypeRedis:
		s, err := redisStore()
		if err != nil {
			return nil, err
		}
		b.realtime = s
	default:
		return nil, fmt.Errorf("invalid RealtimeType %q: must be 'memory' or 'redis'", realtimeType)
	}

	switch ledgerType {
	case StorageTypeMemory:
		s := memoryStore()
		b.users, b.ledger = s, s
	case StorageTypeRedis:
		s, err := redisStore()
		if err != nil {
			b.close()
			return nil, err
		}
		b.users, b.ledger = s, s
	case StorageTypePostgres:
		if cfg.PostgresDSN == "" {
			b.close()
			return nil, errors.New("PostgresDSN required when LedgerType is postgres")
		}
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.users, b.ledger = s, s
		b.closers = append(b.closers, s)
	default:
		b.close()
		return nil, fmt.Errorf("invalid LedgerType %q: must be 'memory', 'redis' or 'postgres'", ledgerType)
	}

	return b, nil
}

func (b *backends) close() {
	for _, c := range b.closers {
		_ = c.Close()
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	usersStore storage.Users,
	ledger storage.Ledger,
	realtime storage.Realtime,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	userService := users.New(usersStore, clk, rnd, logger)
	roomService := rooms.New(usersStore, ledger, realtime, clk, rnd, logger)
	engine := round.NewEngine(roomService, usersStore, ledger, realtime, clk, rnd, logger)
	presenceService := presence.New(realtime, logger)
	hubManager := stream.NewHubManager(realtime, logger)

	return &App{
		Users:           usersStore,
		Ledger:          ledger,
		Realtime:        realtime,
		Clock:           clk,
		Random:          rnd,
		UserService:     userService,
		RoomService:     roomService,
		RoundEngine:     engine,
		PresenceService: presenceService,
		HubManager:      hubManager,
		logger:          logger,
	}
}

// Router builds the API handler over the app's services
func (a *App) Router(publicURL string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      a.logger,
		UserService: a.UserService,
		RoomService: a.RoomService,
		RoundEngine: a.RoundEngine,
		HubManager:  a.HubManager,
		Presence:    a.PresenceService,
		PublicURL:   publicURL,
	})
}

// Close stops the stream hubs and releases storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
