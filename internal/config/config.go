package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/factory"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
)

// EnvPrefix prefixes the environment variable mirroring each flag
const EnvPrefix = "RPSGAME"

// Config holds server configuration
type Config struct {
	Bind            string
	Port            int
	Realtime        string
	Ledger          string
	RedisURL        string
	PostgresDSN     string
	PublicURL       string
	LogLevel        string
	LogFormat       string
	RoomTTL         time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	JanitorInterval time.Duration
}

// Validate checks the configuration for inconsistent settings
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}

	switch c.Realtime {
	case factory.StorageTypeMemory, factory.StorageTypeRedis:
	default:
		return fmt.Errorf("invalid --realtime %q (must be memory or redis)", c.Realtime)
	}
	switch c.Ledger {
	case factory.StorageTypeMemory, factory.StorageTypeRedis, factory.StorageTypePostgres:
	default:
		return fmt.Errorf("invalid --ledger %q (must be memory, redis or postgres)", c.Ledger)
	}

	if (c.Realtime == factory.StorageTypeRedis || c.Ledger == factory.StorageTypeRedis) && c.RedisURL == "" {
		return errors.New("--redis-url is required when redis storage is selected")
	}
	if c.Ledger == factory.StorageTypePostgres && c.PostgresDSN == "" {
		return errors.New("--postgres-dsn is required when --ledger=postgres")
	}

	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --public-url %q (must be an absolute http(s) URL)", c.PublicURL)
		}
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid --log-format %q (must be json or text)", c.LogFormat)
	}

	if c.RoomTTL < 0 {
		return fmt.Errorf("invalid --room-ttl %s (must not be negative)", c.RoomTTL)
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("invalid --janitor-interval %s (must be positive)", c.JanitorInterval)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

// Logger builds the application logger writing to w
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// Factory maps the configuration onto the application factory
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:       logger,
		RealtimeType: c.Realtime,
		LedgerType:   c.Ledger,
		PostgresDSN:  c.PostgresDSN,
	}
	if c.RedisURL != "" {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.RoomTTL = c.RoomTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// Server maps the configuration onto the HTTP server settings
func (c *Config) Server() api.ServerConfig {
	return api.ServerConfig{
		Host:            c.Bind,
		Port:            c.Port,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// NewCommand creates the server command. Every flag falls back to an
// environment variable named after it with the RPSGAME_ prefix.
func NewCommand(cfg *Config, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "rps-server",
		Short: "Serves two-player rock-paper-scissors rooms over HTTP.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	defaults := api.DefaultServerConfig()
	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: RPSGAME_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", defaults.Port, "port to listen on (env: RPSGAME_PORT)")
	fs.StringVar(&cfg.Realtime, "realtime", factory.StorageTypeMemory, "live room store: memory, redis (env: RPSGAME_REALTIME)")
	fs.StringVar(&cfg.Ledger, "ledger", factory.StorageTypeMemory, "users, room index and score store: memory, redis, postgres (env: RPSGAME_LEDGER)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "redis connection URL (env: RPSGAME_REDIS_URL)")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", "", "postgres connection string (env: RPSGAME_POSTGRES_DSN)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "external base URL used in share links, derived from requests when empty (env: RPSGAME_PUBLIC_URL)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error (env: RPSGAME_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "json", "log format: json, text (env: RPSGAME_LOG_FORMAT)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", redisstorage.DefaultConfig().RoomTTL, "expiry of idle redis room records, 0 keeps them (env: RPSGAME_ROOM_TTL)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", defaults.ReadTimeout, "HTTP read timeout (env: RPSGAME_READ_TIMEOUT)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", defaults.WriteTimeout, "HTTP write timeout, streams are exempt (env: RPSGAME_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "graceful shutdown timeout (env: RPSGAME_SHUTDOWN_TIMEOUT)")
	fs.DurationVar(&cfg.JanitorInterval, "janitor-interval", time.Minute, "how often idle stream hubs are closed (env: RPSGAME_JANITOR_INTERVAL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
