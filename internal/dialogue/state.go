// Package dialogue holds the conversation memory threaded through each turn.
// Values are never mutated in place: every With* method returns a new State
// that shares no slices with the old one.
package dialogue

import (
	"fmt"
	"strings"
	"time"

	"inventory-voice-assistant/internal/action"
	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/classify"
)

// MaxHistory bounds the exchange history; the oldest entries go first.
const MaxHistory = 6

type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

type Exchange struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingAction is an action waiting for the user to confirm it.
type PendingAction struct {
	Action action.Action `json:"action"`
	Risk   action.Risk   `json:"risk"`
}

// LinkChoice is a catalog record offered as the value of a linked task field.
type LinkChoice struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Alt  []string `json:"alt,omitempty"`
}

func (c LinkChoice) DisplayName() string { return c.Name }
func (c LinkChoice) AltFields() []string { return c.Alt }

// LinkQuestion is an unanswered "which one?" about a linked task field
// (location, assignee, product, maintainer). The field stays out of the
// task until the question is answered.
type LinkQuestion struct {
	Field      string       `json:"field"`
	Query      string       `json:"query"`
	Candidates []LinkChoice `json:"candidates"`
}

// State is the whole memory of one conversation. The zero value is the empty
// state of a new conversation.
type State struct {
	focus         *catalog.Product
	searchResults []catalog.Product
	pending       *PendingAction
	task          Task
	links         []LinkQuestion
	history       []Exchange
	speaker       classify.SpeakerHint
}

func (s State) Focus() (catalog.Product, bool) {
	if s.focus == nil {
		return catalog.Product{}, false
	}
	return *s.focus, true
}

func (s State) LastSearchResults() []catalog.Product {
	return append([]catalog.Product(nil), s.searchResults...)
}

func (s State) Pending() (PendingAction, bool) {
	if s.pending == nil {
		return PendingAction{}, false
	}
	return clonePending(*s.pending), true
}

// AwaitingConfirmation is true exactly when a pending action is held.
func (s State) AwaitingConfirmation() bool { return s.pending != nil }

func (s State) Task() Task { return s.task }

// OpenLinkQuestion returns the oldest unanswered link question.
func (s State) OpenLinkQuestion() (LinkQuestion, bool) {
	if len(s.links) == 0 {
		return LinkQuestion{}, false
	}
	return cloneLink(s.links[0]), true
}

func (s State) LinkQuestions() []LinkQuestion {
	out := make([]LinkQuestion, len(s.links))
	for i, q := range s.links {
		out[i] = cloneLink(q)
	}
	return out
}

func (s State) History() []Exchange {
	return append([]Exchange(nil), s.history...)
}

func (s State) Speaker() classify.SpeakerHint { return s.speaker }

// AddExchange appends an exchange, evicting the oldest beyond MaxHistory.
func (s State) AddExchange(role Role, text string, at time.Time) State {
	h := make([]Exchange, 0, MaxHistory)
	h = append(h, s.history...)
	h = append(h, Exchange{Role: role, Text: text, Timestamp: at})
	if len(h) > MaxHistory {
		h = h[len(h)-MaxHistory:]
	}
	s.history = append([]Exchange(nil), h...)
	return s
}

func (s State) WithPending(p PendingAction) State {
	p = clonePending(p)
	s.pending = &p
	return s
}

func (s State) ClearPending() State {
	s.pending = nil
	return s
}

// WithTask replaces the active task; nil clears it. Open link questions
// are dropped unless the task keeps its kind.
func (s State) WithTask(t Task) State {
	if t == nil || s.task == nil || t.Kind() != s.task.Kind() {
		s.links = nil
	}
	s.task = t
	return s
}

// WithLinkQuestion queues q. An open question on the same field is
// replaced in place.
func (s State) WithLinkQuestion(q LinkQuestion) State {
	links := make([]LinkQuestion, 0, len(s.links)+1)
	replaced := false
	for _, l := range s.links {
		if l.Field == q.Field {
			l, replaced = q, true
		}
		links = append(links, cloneLink(l))
	}
	if !replaced {
		links = append(links, cloneLink(q))
	}
	s.links = links
	return s
}

// WithoutLinkQuestion drops the open question on field, if any.
func (s State) WithoutLinkQuestion(field string) State {
	var links []LinkQuestion
	for _, l := range s.links {
		if l.Field != field {
			links = append(links, l)
		}
	}
	s.links = links
	return s
}

func (s State) WithFocus(p catalog.Product) State {
	s.focus = &p
	return s
}

func (s State) ClearFocus() State {
	s.focus = nil
	return s
}

func (s State) WithSearchResults(results []catalog.Product) State {
	s.searchResults = append([]catalog.Product(nil), results...)
	return s
}

// WithSpeaker folds a new hint into the current one.
func (s State) WithSpeaker(h classify.SpeakerHint) State {
	s.speaker = classify.MergeSpeaker(s.speaker, h)
	return s
}

// Reset returns the empty state of a fresh conversation.
func (s State) Reset() State {
	return State{}
}

// FocusSummary describes the product in focus for the prompt.
func (s State) FocusSummary() string {
	if s.focus == nil {
		return ""
	}
	p := s.focus
	parts := []string{fmt.Sprintf("%q (id %s)", p.Name, p.ID)}
	if p.Category != "" {
		parts = append(parts, "category "+p.Category)
	}
	if p.Brand != "" || p.Model != "" {
		parts = append(parts, strings.TrimSpace(p.Brand+" "+p.Model))
	}
	if p.SerialNumber != "" {
		parts = append(parts, "serial "+p.SerialNumber)
	}
	return strings.Join(parts, ", ")
}

func clonePending(p PendingAction) PendingAction {
	if p.Action.Params != nil {
		params := make(map[string]string, len(p.Action.Params))
		for k, v := range p.Action.Params {
			params[k] = v
		}
		p.Action.Params = params
	}
	return p
}

func cloneLink(q LinkQuestion) LinkQuestion {
	q.Candidates = append([]LinkChoice(nil), q.Candidates...)
	return q
}
