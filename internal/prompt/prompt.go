// Package prompt builds the text sent to the oracle on every turn.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inventory-voice-assistant/internal/classify"
	"inventory-voice-assistant/internal/dialogue"
)

//go:embed assistant.yaml
var defaultSpec []byte

// MaxHistory is how many earlier exchanges go into the prompt.
const MaxHistory = 5

type Spec struct {
	System  string `yaml:"system"`
	Actions []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"actions"`
	Fields   map[string]string `yaml:"fields"`
	Speakers map[string]string `yaml:"speakers"`
	Style    struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// Default returns the embedded prompt spec.
func Default() (*Spec, error) {
	return parse(defaultSpec)
}

// Load reads a prompt spec file. An empty path selects the embedded default.
func Load(path string) (*Spec, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt spec: %w", err)
	}
	return parse(b)
}

func parse(b []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse prompt spec: %w", err)
	}
	if strings.TrimSpace(spec.System) == "" {
		return nil, fmt.Errorf("prompt spec has no system instructions")
	}
	return &spec, nil
}

// Input is the per-turn context.
type Input struct {
	Today   time.Time
	Focus   string
	Task    string
	Missing []string
	// History holds the earlier exchanges, oldest first, without the
	// current utterance.
	History   []dialogue.Exchange
	Speaker   classify.SpeakerHint
	Utterance string
}

// Build renders the prompt.
func (s *Spec) Build(in Input) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.System))

	b.WriteString("\n\nActions:\n")
	for _, a := range s.Actions {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
	}
	if len(s.Fields) > 0 {
		b.WriteString("\nTask fields:\n")
		kinds := make([]string, 0, len(s.Fields))
		for k := range s.Fields {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "- %s: %s\n", k, s.Fields[k])
		}
	}

	fmt.Fprintf(&b, "\nToday: %s\n", in.Today.Format("2006-01-02 (Monday)"))
	if in.Focus != "" {
		fmt.Fprintf(&b, "Product in focus: %s\n", in.Focus)
	}
	if in.Task != "" {
		fmt.Fprintf(&b, "Active task: %s\n", in.Task)
		if len(in.Missing) > 0 {
			fmt.Fprintf(&b, "Still missing: %s\n", strings.Join(in.Missing, ", "))
		}
	}
	if g := strings.TrimSpace(s.Speakers[in.Speaker.String()]); g != "" {
		fmt.Fprintf(&b, "Speaker: %s\n", g)
	}

	history := in.History
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	if len(history) > 0 {
		b.WriteString("\nTranscript (role: content):\n")
		for _, e := range history {
			fmt.Fprintf(&b, "%s: %s\n", e.Role, oneLine(e.Text))
		}
	}

	fmt.Fprintf(&b, "\nUSER: %s\n", oneLine(in.Utterance))
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
