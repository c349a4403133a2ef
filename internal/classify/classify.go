// Package classify holds the pattern heuristics that read who is speaking
// and what they want the assistant to do next.
package classify

import (
	"regexp"
	"strings"
	"unicode"
)

type SpeakerHint int

const (
	SpeakerUnknown SpeakerHint = iota
	// SpeakerMaintainer: the technician is talking about their own work.
	SpeakerMaintainer
	// SpeakerOperator: staff is reporting work someone else did.
	SpeakerOperator
)

func (s SpeakerHint) String() string {
	switch s {
	case SpeakerMaintainer:
		return "maintainer"
	case SpeakerOperator:
		return "operator"
	default:
		return "unknown"
	}
}

type Intent int

const (
	IntentContinue Intent = iota
	IntentProceed
	IntentCancel
)

func (i Intent) String() string {
	switch i {
	case IntentProceed:
		return "proceed"
	case IntentCancel:
		return "cancel"
	default:
		return "continue"
	}
}

// Answer is the reading of a reply to a confirmation question.
type Answer int

const (
	AnswerUnclear Answer = iota
	AnswerYes
	AnswerNo
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "unclear"
	}
}

// Classifier is what the orchestrator needs from a heuristic.
type Classifier interface {
	Speaker(text string) SpeakerHint
	Intent(text string) Intent
	Confirmation(text string) Answer
}

// MergeSpeaker combines the previous hint with a new one. Unknown never
// overrides a known hint; otherwise the newest statement wins.
func MergeSpeaker(prev, next SpeakerHint) SpeakerHint {
	if next == SpeakerUnknown {
		return prev
	}
	return next
}

// Patterns is the default Italian/English Classifier.
type Patterns struct {
	FirstPerson  []*regexp.Regexp
	ThirdPerson  []*regexp.Regexp
	CancelExact  []string
	Cancel       []string
	ProceedExact []string
	Proceed      []string
	Affirmative  []string
	Negative     []string
}

var _ Classifier = (*Patterns)(nil)

// Default returns the built-in pattern set.
func Default() *Patterns {
	return &Patterns{
		FirstPerson: compile(
			`\b(ho|abbiamo) (appena )?(riparato|sistemato|sostituito|cambiato|controllato|verificato|installato|effettuato|pulito|montato)\b`,
			`\bsono (della ditta|il tecnico|la tecnica|di [a-z]+)\b`,
			`\b(il mio|il nostro) intervento\b`,
			`\b(i|we) (have |just )?(repaired|fixed|replaced|checked|installed|serviced|cleaned)\b`,
			`\b(i'm|i am) (from|with|the technician)\b`,
			`\bmy (visit|intervention|job)\b`,
		),
		ThirdPerson: compile(
			`\b(il|un|lo) (tecnico|manutentore|idraulico|elettricista) (ha|è|e')(\s|$)`,
			`\bla ditta [a-z0-9]+ (ha|hanno)\b`,
			`\b(ha|hanno) (riparato|sistemato|sostituito|cambiato|controllato|installato|pulito)\b`,
			`(^|\s)è (venuto|passato) (il|un) (tecnico|manutentore)`,
			`\bthe (technician|engineer|company|contractor|plumber|electrician) (has |had )?(repaired|fixed|replaced|came|did|serviced)\b`,
			`\b(they|he|she) (have |has )?(repaired|fixed|replaced|serviced)\b`,
			`\bcompany [a-z0-9]+ (has |have )?(repaired|fixed|serviced)\b`,
		),
		CancelExact: []string{"no", "basta", "stop"},
		Cancel: []string{
			"annulla", "lascia perdere", "lascia stare", "non importa", "ricominciamo",
			"cancel", "never mind", "forget it", "abort", "start over",
		},
		ProceedExact: []string{"sì", "si", "yes", "ok", "okay", "ecco"},
		Proceed: []string{
			"procedi", "vai avanti", "avanti", "salva", "conferma", "fatto", "va bene",
			"è tutto", "basta così", "nient'altro",
			"proceed", "go ahead", "done", "save it", "that's all", "that's it",
		},
		Affirmative: []string{
			"sì", "si", "yes", "ok", "okay", "confermo", "conferma", "certo", "esatto",
			"procedi", "vai", "fallo", "va bene", "d'accordo",
			"confirm", "go ahead", "sure", "yep", "do it",
		},
		Negative: []string{
			"no", "annulla", "stop", "lascia perdere", "non farlo", "aspetta",
			"cancel", "nope", "don't", "wait", "never mind",
		},
	}
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func (p *Patterns) Speaker(text string) SpeakerHint {
	t := Normalize(text)
	first, third := countMatches(p.FirstPerson, t), countMatches(p.ThirdPerson, t)
	switch {
	case first > third:
		return SpeakerMaintainer
	case third > first:
		return SpeakerOperator
	default:
		return SpeakerUnknown
	}
}

// Intent checks cancel phrases before proceed phrases so "no, cancel" never
// reads as proceeding.
func (p *Patterns) Intent(text string) Intent {
	t := Normalize(text)
	if t == "" {
		return IntentContinue
	}
	if matchesExact(t, p.CancelExact) || matchesExact(t, p.Cancel) || containsPhrase(t, p.Cancel) {
		return IntentCancel
	}
	if matchesExact(t, p.ProceedExact) || matchesExact(t, p.Proceed) || edgePhrase(t, p.Proceed) {
		return IntentProceed
	}
	return IntentContinue
}

// Confirmation reads a yes/no reply. Only exact replies and replies that
// open with a listed phrase count; everything else is unclear.
func (p *Patterns) Confirmation(text string) Answer {
	t := Normalize(text)
	switch {
	case t == "":
		return AnswerUnclear
	case matchesExact(t, p.Negative) || leadingPhrase(t, p.Negative):
		return AnswerNo
	case matchesExact(t, p.Affirmative) || leadingPhrase(t, p.Affirmative):
		return AnswerYes
	default:
		return AnswerUnclear
	}
}

// Normalize lowercases, drops punctuation other than apostrophes and
// collapses whitespace.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return unicode.ToLower(r)
		case r == '’':
			return '\''
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func countMatches(res []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func matchesExact(text string, phrases []string) bool {
	for _, p := range phrases {
		if text == p {
			return true
		}
	}
	return false
}

func containsPhrase(text string, phrases []string) bool {
	padded := " " + text + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func leadingPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.HasPrefix(text, p+" ") {
			return true
		}
	}
	return false
}

func edgePhrase(text string, phrases []string) bool {
	if leadingPhrase(text, phrases) {
		return true
	}
	for _, p := range phrases {
		if strings.HasSuffix(text, " "+p) {
			return true
		}
	}
	return false
}
