package orchestrator

import "inventory-voice-assistant/internal/action"

type OutcomeKind string

const (
	// OutcomeReply is plain text for the user.
	OutcomeReply OutcomeKind = "reply"
	// OutcomeExecute carries an action the caller should perform now.
	OutcomeExecute OutcomeKind = "execute"
	// OutcomeConfirmationNeeded asks the user to confirm a pending action.
	OutcomeConfirmationNeeded OutcomeKind = "confirmation_needed"
	// OutcomeCancelled acknowledges a cancelled task or action.
	OutcomeCancelled OutcomeKind = "cancelled"
	// OutcomeTaskPrompt asks for the fields an active task still needs.
	OutcomeTaskPrompt OutcomeKind = "task_prompt"
)

// Outcome is what a turn produced for the caller.
type Outcome struct {
	Kind    OutcomeKind    `json:"kind"`
	Text    string         `json:"text"`
	Action  *action.Action `json:"action,omitempty"`
	Risk    *action.Risk   `json:"risk,omitempty"`
	Missing []string       `json:"missing,omitempty"`
}

func reply(text string) Outcome {
	return Outcome{Kind: OutcomeReply, Text: text}
}

func execute(text string, a action.Action) Outcome {
	risk := action.RiskOf(a.Type)
	return Outcome{Kind: OutcomeExecute, Text: text, Action: &a, Risk: &risk}
}

func confirmation(text string, a action.Action, risk action.Risk) Outcome {
	return Outcome{Kind: OutcomeConfirmationNeeded, Text: text, Action: &a, Risk: &risk}
}
