// Package orchestrator runs one conversational turn: admission, input
// checks, the confirmation, link-question and task state machines, the
// oracle call and the risk gate on whatever action the oracle asks for.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/classify"
	"inventory-voice-assistant/internal/dialogue"
	"inventory-voice-assistant/internal/guard"
	"inventory-voice-assistant/internal/logging"
	"inventory-voice-assistant/internal/metrics"
	"inventory-voice-assistant/internal/oracle"
	"inventory-voice-assistant/internal/prompt"
	"inventory-voice-assistant/internal/ratelimit"
	"inventory-voice-assistant/internal/resolver"
)

const DefaultOracleTimeout = 20 * time.Second

// Apology is the reply used whenever the oracle could not produce a usable
// answer.
const Apology = "Sorry, I didn't get that. Could you say it again?"

// Orchestrator advances one conversation. It holds no dialogue state of its
// own; the state is passed in and returned by Advance.
type Orchestrator struct {
	oracle        oracle.Oracle
	prompt        *prompt.Spec
	resolver      *resolver.Service
	limiter       *ratelimit.Limiter
	classifier    classify.Classifier
	metrics       *metrics.Recorder
	log           zerolog.Logger
	now           func() time.Time
	oracleTimeout time.Duration
}

type Option func(*Orchestrator)

func WithClassifier(c classify.Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithOracleTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.oracleTimeout = d
		}
	}
}

func New(orc oracle.Oracle, spec *prompt.Spec, res *resolver.Service, limiter *ratelimit.Limiter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		oracle:        orc,
		prompt:        spec,
		resolver:      res,
		limiter:       limiter,
		classifier:    classify.Default(),
		log:           logging.Component("orchestrator"),
		now:           time.Now,
		oracleTimeout: DefaultOracleTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Limiter exposes the oracle budget of this conversation.
func (o *Orchestrator) Limiter() *ratelimit.Limiter { return o.limiter }

// Advance processes one utterance and returns the next state. On error the
// returned state is st unchanged: ErrRateLimited and *InputError carry a
// user message, a cancelled ctx returns ctx.Err().
func (o *Orchestrator) Advance(ctx context.Context, st dialogue.State, utterance string) (dialogue.State, Outcome, error) {
	if !o.limiter.TryAcquire() {
		o.metrics.RateLimited()
		o.log.Info().Ctx(ctx).Msg("turn refused by rate limiter")
		return st, Outcome{}, ErrRateLimited
	}

	text, err := o.sanitize(ctx, utterance)
	if err != nil {
		return st, Outcome{}, err
	}

	now := o.now()
	next := st.AddExchange(dialogue.RoleUser, text, now).
		WithSpeaker(o.classifier.Speaker(text))

	if next.AwaitingConfirmation() {
		next, out := o.handleConfirmation(next, text)
		return o.finish(next, out), out, nil
	}

	if q, ok := next.OpenLinkQuestion(); ok {
		if answered, out, handled := o.answerLink(ctx, next, q, text); handled {
			return o.finish(answered, out), out, nil
		}
	}

	if task := next.Task(); task != nil {
		switch o.classifier.Intent(text) {
		case classify.IntentCancel:
			out := Outcome{Kind: OutcomeCancelled, Text: "Ok, I've discarded the " + string(task.Kind()) + " draft."}
			return o.finish(next.WithTask(nil), out), out, nil
		case classify.IntentProceed:
			if !dialogue.IsComplete(task) {
				out := nextPrompt(next, "")
				return o.finish(next, out), out, nil
			}
			next, out := o.finalize(ctx, next, task)
			return o.finish(next, out), out, nil
		}
	}

	raw, err := o.ask(ctx, next, text)
	if err != nil {
		if ctx.Err() != nil {
			return st, Outcome{}, ctx.Err()
		}
		out := reply(Apology)
		return o.finish(next, out), out, nil
	}

	act, clean, ok := action.Parse(raw)
	if !ok {
		out := reply(clean)
		return o.finish(next, out), out, nil
	}
	if action.IsBookkeeping(act.Type) {
		next, out := o.applyTaskDirective(ctx, next, act, clean)
		return o.finish(next, out), out, nil
	}

	risk := action.RiskOf(act.Type)
	if risk == action.RiskLow {
		out := execute(clean, act)
		return o.finish(next, out), out, nil
	}

	next = next.WithPending(dialogue.PendingAction{Action: act, Risk: risk})
	out := confirmation(joinText(clean, confirmQuestion(act, risk)), act, risk)
	return o.finish(next, out), out, nil
}

func (o *Orchestrator) sanitize(ctx context.Context, utterance string) (string, error) {
	switch r := guard.SanitizeFreeText(utterance).(type) {
	case guard.Clean:
		return r.Text, nil
	case guard.Suspicious:
		o.metrics.FlaggedInput("suspicious", r.Reason)
		o.log.Warn().Ctx(ctx).Str("reason", r.Reason).Str("text", r.Text).Msg("suspicious input")
		return r.Text, nil
	case guard.Rejected:
		o.metrics.FlaggedInput("rejected", r.Reason)
		o.log.Info().Ctx(ctx).Str("reason", r.Reason).Msg("input rejected")
		return "", &InputError{Reason: r.Reason}
	}
	return "", &InputError{Reason: "unreadable input"}
}

// ask builds the prompt from the state before the current utterance and
// calls the oracle under the turn timeout.
func (o *Orchestrator) ask(ctx context.Context, st dialogue.State, utterance string) (string, error) {
	history := st.History()
	history = history[:len(history)-1]

	in := prompt.Input{
		Today:     o.now(),
		Focus:     st.FocusSummary(),
		History:   history,
		Speaker:   st.Speaker(),
		Utterance: utterance,
	}
	if task := st.Task(); task != nil {
		in.Task = dialogue.Summary(task)
		in.Missing = task.RequiredMissing()
	}

	octx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
	defer cancel()

	start := o.now()
	raw, err := o.oracle.Complete(octx, o.prompt.Build(in))
	elapsed := o.now().Sub(start)
	if err != nil {
		if ctx.Err() != nil {
			o.log.Info().Ctx(ctx).Err(err).Msg("turn abandoned by caller")
			return "", err
		}
		reason := failureReason(err)
		o.metrics.ObserveOracle("error", elapsed)
		o.metrics.OracleFailure(reason)
		o.log.Warn().Ctx(ctx).Err(err).Str("reason", reason).Msg("oracle call failed")
		return "", err
	}
	o.metrics.ObserveOracle("ok", elapsed)
	return raw, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, oracle.ErrTruncated):
		return "truncated"
	case errors.Is(err, oracle.ErrMalformed):
		return "malformed"
	default:
		return "transport"
	}
}

// finish records the assistant side of the turn.
func (o *Orchestrator) finish(st dialogue.State, out Outcome) dialogue.State {
	o.metrics.Turn(string(out.Kind))
	if out.Text == "" {
		return st
	}
	return st.AddExchange(dialogue.RoleAssistant, out.Text, o.now())
}

func joinText(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
