package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/dialogue"
	"inventory-voice-assistant/internal/orchestrator"
)

type ChatCmd struct {
	flags *Flags
	app   *App
}

func NewChatCmd(flags *Flags, app *App) *ChatCmd {
	return &ChatCmd{flags: flags, app: app}
}

func (cmd *ChatCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "chat",
		Usage:     "Talk to the assistant from the terminal",
		UsageText: "inventory-assistant chat",
		Description: `Reads one utterance per line and prints the assistant's reply and any
action it asks for. Actions are printed, not executed.

  /scan CODE   feed a scanned barcode
  /reset       start a new conversation
  /quit        exit`,
		Action: cmd.run,
	})
	return app
}

func (cmd *ChatCmd) run(ctx context.Context, c *cli.Command) error {
	in := c.Root().Reader
	if in == nil {
		in = os.Stdin
	}
	out := c.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	orc := cmd.app.NewOrchestrator()
	var st dialogue.State

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var (
			next    dialogue.State
			outcome orchestrator.Outcome
			err     error
		)
		switch {
		case line == "":
			fmt.Fprint(out, "> ")
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			st = st.Reset()
			fmt.Fprint(out, "(new conversation)\n> ")
			continue
		case strings.HasPrefix(line, "/scan "):
			next, outcome, err = orc.ApplyBarcode(ctx, st, strings.TrimPrefix(line, "/scan "))
		default:
			next, outcome, err = orc.Advance(ctx, st, line)
		}

		var inputErr *orchestrator.InputError
		switch {
		case errors.Is(err, orchestrator.ErrRateLimited), errors.As(err, &inputErr):
			fmt.Fprintln(out, err.Error())
		case err != nil:
			return err
		default:
			st = next
			printOutcome(out, st, outcome)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printOutcome(w io.Writer, st dialogue.State, out orchestrator.Outcome) {
	if out.Text != "" {
		fmt.Fprintln(w, out.Text)
	}
	if out.Action != nil {
		risk := action.RiskOf(out.Action.Type)
		if out.Risk != nil {
			risk = *out.Risk
		}
		fmt.Fprintf(w, "  [%s] %s %s\n", out.Kind, risk, action.Format(*out.Action))
	}
	if task := st.Task(); task != nil {
		fmt.Fprintf(w, "  draft %s\n", dialogue.Summary(task))
	}
}
