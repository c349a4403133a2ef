package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"inventory-voice-assistant/internal/commands"
	"inventory-voice-assistant/internal/config"
	"inventory-voice-assistant/internal/logging"
)

// Populated at build-time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := &commands.Flags{}
	app := &commands.App{}

	root := &cli.Command{
		Name:    "inventory-assistant",
		Usage:   "Voice-driven inventory data entry",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides LOG_LEVEL",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (json, console); overrides LOG_FORMAT",
				Destination: &flags.LogFormat,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg := config.Load()
			if flags.LogLevel != "" {
				cfg.LogLevel = flags.LogLevel
			}
			if flags.LogFormat != "" {
				cfg.LogFormat = flags.LogFormat
			}
			if err := cfg.Validate(); err != nil {
				return ctx, fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			for _, w := range cfg.Warnings() {
				log.Warn().Msg(w)
			}

			built, err := commands.Bootstrap(ctx, cfg, prometheus.DefaultRegisterer)
			if err != nil {
				return ctx, err
			}
			*app = *built
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			app.Close()
			return nil
		},
	}

	root = commands.NewServeCmd(flags, app).Register(root)
	root = commands.NewChatCmd(flags, app).Register(root)
	root = commands.NewResolveCmd(flags, app).Register(root)

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
