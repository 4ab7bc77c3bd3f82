package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/coderooms-server/internal/app"
	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/config"
	"github.com/vovakirdan/coderooms-server/internal/core"
	applog "github.com/vovakirdan/coderooms-server/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
	addr       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "coderooms",
		Short:        "Anonymous code snippet rooms over a JSON API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "HTTP listen address")

	root.AddCommand(
		newServeCmd(opts),
		newRoomsCmd(opts),
		newHashTokenCmd(),
	)
	return root
}

// loadConfig resolves configuration and a logger honouring the flag overrides.
func loadConfig(opts *rootOptions) (config.Config, *zerolog.Logger, error) {
	bootstrap := applog.New(levelOr(opts.logLevel, "info"))

	cfg, path, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(config.Config{Addr: opts.addr, LogLevel: opts.logLevel})

	logger := applog.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Debug().Str("path", path).Msg("configuration loaded")
	return cfg, logger, nil
}

func levelOr(level, fallback string) string {
	if level != "" {
		return level
	}
	return fallback
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting coderooms server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newRoomsCmd(opts *rootOptions) *cobra.Command {
	rooms := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and create rooms",
	}

	rooms.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBoard(cmd.Context(), opts, func(ctx context.Context, board *core.Board) error {
				list, err := board.Rooms(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tNAME\tCREATED")
				for _, r := range list {
					created := time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Slug, r.Name, created)
				}
				return w.Flush()
			})
		},
	})

	rooms.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a room, or print the existing one with the same slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd.Context(), opts, func(ctx context.Context, board *core.Board) error {
				room, err := board.CreateRoom(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", room.ID, room.Slug)
				return nil
			})
		},
	})

	return rooms
}

// withBoard opens the configured store and runs fn against a board without
// rate limiting or admin credential.
func withBoard(ctx context.Context, opts *rootOptions, fn func(context.Context, *core.Board) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := app.OpenStore(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	return fn(ctx, core.NewBoard(st, nil, nil, nil, logger))
}

func newHashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print a bcrypt hash for admin_token_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
