// Package action describes the directives the oracle embeds in its replies
// and how risky each one is.
package action

import (
	"regexp"
	"sort"
	"strings"
)

type Type string

const (
	Search Type = "search"
	Show   Type = "show"
	List   Type = "list"
	Scan   Type = "scan"
	Create Type = "create"
	Alert  Type = "alert"
	Email  Type = "email"
	Delete Type = "delete"

	// Task bookkeeping, handled by the orchestrator itself.
	TaskStart   Type = "task_start"
	TaskUpdate  Type = "task_update"
	TaskCorrect Type = "task_correct"
)

type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

func (r Risk) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Action is a request for the caller to do something.
type Action struct {
	Type   Type              `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Param returns a parameter value or "".
func (a Action) Param(key string) string {
	return a.Params[key]
}

// RiskOf classifies an action type. Unknown types are MEDIUM so they always
// need confirmation.
func RiskOf(t Type) Risk {
	switch t {
	case Search, Show, List, Scan:
		return RiskLow
	case Email, Delete:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// IsBookkeeping reports whether t updates the active task instead of asking
// the caller for an effect.
func IsBookkeeping(t Type) bool {
	return t == TaskStart || t == TaskUpdate || t == TaskCorrect
}

var directiveRe = regexp.MustCompile(`(?i)\[ACTION:([a-z_]+):([^\]]*)\]`)

// Parse extracts the first [ACTION:type:params] directive from an oracle
// reply and returns the reply with every directive tag removed.
//
// Params are key=value pairs separated by ';'. A params string without '='
// is kept whole under "query".
func Parse(text string) (Action, string, bool) {
	m := directiveRe.FindStringSubmatch(text)
	clean := strings.Join(strings.Fields(directiveRe.ReplaceAllString(text, " ")), " ")
	if m == nil {
		return Action{}, clean, false
	}
	return Action{Type: Type(strings.ToLower(m[1])), Params: parseParams(m[2])}, clean, true
}

func parseParams(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, "=") {
		return map[string]string{"query": raw}
	}
	params := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		params[k] = strings.TrimSpace(v)
	}
	return params
}

// Format renders the action back into directive form, keys sorted.
func Format(a Action) string {
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + a.Params[k]
	}
	return "[ACTION:" + string(a.Type) + ":" + strings.Join(parts, ";") + "]"
}
