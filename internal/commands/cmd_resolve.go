package commands

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"inventory-voice-assistant/internal/resolver"
)

type ResolveCmd struct {
	flags *Flags
	app   *App
	kind  string
	query string
}

func NewResolveCmd(flags *Flags, app *App) *ResolveCmd {
	return &ResolveCmd{flags: flags, app: app}
}

func (cmd *ResolveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a spoken name against the catalog",
		UsageText: "inventory-assistant resolve --kind maintainer --query \"medica\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "kind",
				Usage:       "entity kind (maintainer, location, assignee, product)",
				Required:    true,
				Destination: &cmd.kind,
			},
			&cli.StringFlag{
				Name:        "query",
				Aliases:     []string{"q"},
				Usage:       "name as spoken",
				Required:    true,
				Destination: &cmd.query,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ResolveCmd) run(ctx context.Context, c *cli.Command) error {
	svc := resolver.NewService(cmd.app.Catalog, resolver.WithMetrics(cmd.app.Metrics))
	summary, err := svc.ResolveKind(ctx, cmd.kind, cmd.query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
