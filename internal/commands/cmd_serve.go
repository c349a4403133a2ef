package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"inventory-voice-assistant/internal/server"
)

type ServeCmd struct {
	flags *Flags
	app   *App
	port  string
}

func NewServeCmd(flags *Flags, app *App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the HTTP API",
		UsageText: "inventory-assistant serve [--port 8080]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Usage:       "listen port (defaults to PORT)",
				Destination: &cmd.port,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	if cmd.port != "" {
		cfg.Port = cmd.port
	}

	srv, err := server.NewServer(cfg, server.Deps{
		Oracle:      cmd.app.Oracle,
		Transcriber: cmd.app.Transcriber,
		Prompt:      cmd.app.Prompt,
		Catalog:     cmd.app.Catalog,
		Metrics:     cmd.app.Metrics,
		Health:      cmd.app.Health,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info().Str("addr", httpSrv.Addr).Str("catalog", cfg.CatalogSource()).Msg("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
