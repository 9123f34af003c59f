package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/clientstate"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/remote"
)

var (
	cfg    *Config
	client *remote.Client
	logger *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "rps",
		Short: "CLI client for the rock-paper-scissors rooms API",
		Long: `rps is a CLI client for the rock-paper-scissors rooms JSON API.

It covers sign up and login, room operations, real-time event streaming
over WebSocket or SSE, and an interactive play mode.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = io.Discard
			if cfg.Verbose {
				w = os.Stderr
			}
			logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))

			client = remote.NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: RPS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.IdentityFile, "identity-file", cfg.IdentityFile, "Identity file path (env: RPS_IDENTITY_FILE)")
	rootCmd.PersistentFlags().StringVar(&cfg.Transport, "transport", cfg.Transport, "Push transport: ws, sse (env: RPS_TRANSPORT)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// identity loads the saved user or fails with ErrNoIdentity
func identity() (*clientstate.Identity, error) {
	return cfg.LoadIdentity()
}

// parseRoomCode accepts a bare code or a share URL ending in the code
func parseRoomCode(arg string) model.RoomCode {
	arg = strings.TrimSpace(arg)
	if i := strings.IndexAny(arg, "?#"); i >= 0 {
		arg = arg[:i]
	}
	arg = strings.TrimRight(arg, "/")
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		arg = arg[i+1:]
	}
	return model.RoomCode(strings.ToUpper(arg))
}
