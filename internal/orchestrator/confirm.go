package orchestrator

import (
	"fmt"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/classify"
	"inventory-voice-assistant/internal/dialogue"
)

// handleConfirmation interprets a reply to a pending action. The pending
// action is cleared before anything else and only restored when the reply
// is unclear.
func (o *Orchestrator) handleConfirmation(st dialogue.State, text string) (dialogue.State, Outcome) {
	pending, _ := st.Pending()
	st = st.ClearPending()

	switch o.classifier.Confirmation(text) {
	case classify.AnswerYes:
		return st, execute("Ok, going ahead.", pending.Action)
	case classify.AnswerNo:
		return st, Outcome{Kind: OutcomeCancelled, Text: "Ok, I won't do it."}
	default:
		st = st.WithPending(pending)
		q := "Sorry, I need a yes or a no. " + confirmQuestion(pending.Action, pending.Risk)
		return st, confirmation(q, pending.Action, pending.Risk)
	}
}

// confirmQuestion asks for confirmation; HIGH risk questions name the
// consequence.
func confirmQuestion(a action.Action, risk action.Risk) string {
	if risk == action.RiskHigh {
		switch a.Type {
		case action.Email:
			return fmt.Sprintf("Really send an email to %s?", firstParam(a, "the maintainer", "to", "recipient", "maintainer"))
		case action.Delete:
			return fmt.Sprintf("Really delete %s? This cannot be undone.", firstParam(a, "this item", "name", "product", "id", "query"))
		}
		return fmt.Sprintf("This %s action cannot be undone. Really go ahead?", a.Type)
	}

	switch a.Type {
	case action.Create:
		if name := firstParam(a, "", "name", "product"); name != "" {
			return fmt.Sprintf("Shall I create %s?", name)
		}
		return "Shall I create it?"
	case action.Alert:
		return "Shall I raise the alert?"
	}
	return "Shall I go ahead?"
}

func firstParam(a action.Action, fallback string, keys ...string) string {
	for _, k := range keys {
		if v := a.Param(k); v != "" {
			return v
		}
	}
	return fallback
}
