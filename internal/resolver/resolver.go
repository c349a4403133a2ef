// Package resolver maps a spoken entity name onto catalog records using
// exact, containment and fuzzy matching tiers.
package resolver

import (
	"sort"
	"strings"

	"inventory-voice-assistant/internal/similarity"
)

const (
	// MinSimilarity is the lowest fuzzy score a candidate may have.
	MinSimilarity = 0.6
	// HighConfidence is the score at which a lone fuzzy candidate is accepted.
	HighConfidence = 0.8
	// ConfidenceGap is the margin by which the best fuzzy candidate must lead
	// the runner-up to skip disambiguation.
	ConfidenceGap = 0.2

	maxContainment = 5
	maxAmbiguous   = 3
)

// Entity is anything that can be matched by name.
type Entity interface {
	DisplayName() string
	// AltFields returns secondary texts (department, company, synonyms) that
	// also take part in containment and fuzzy matching.
	AltFields() []string
}

// Result is the outcome of a resolution. It is one of Found, Ambiguous,
// NotFound or NeedsConfirmation.
type Result[T Entity] interface {
	isResult()
}

// Found means the query identifies a single entity.
type Found[T Entity] struct {
	Entity T
}

// Ambiguous means several entities match equally well.
type Ambiguous[T Entity] struct {
	Candidates []T
	Query      string
}

// NotFound means nothing in the catalog matches the query.
type NotFound[T Entity] struct {
	Query string
}

// NeedsConfirmation means one entity is the likely match but the user
// should confirm it.
type NeedsConfirmation[T Entity] struct {
	Candidate  T
	Similarity float64
	Query      string
}

func (Found[T]) isResult()             {}
func (Ambiguous[T]) isResult()         {}
func (NotFound[T]) isResult()          {}
func (NeedsConfirmation[T]) isResult() {}

type scored[T Entity] struct {
	entity T
	score  float64
}

// Resolve matches query against candidates. Each tier returns early.
func Resolve[T Entity](query string, candidates []T) Result[T] {
	q := normalize(query)
	if q == "" {
		return NotFound[T]{Query: query}
	}

	for _, c := range candidates {
		if normalize(c.DisplayName()) == q {
			return Found[T]{Entity: c}
		}
	}

	var contained []T
	for _, c := range candidates {
		if containsEither(q, c) {
			contained = append(contained, c)
		}
	}
	switch n := len(contained); {
	case n == 1:
		return Found[T]{Entity: contained[0]}
	case n >= 2 && n <= maxContainment:
		return Ambiguous[T]{Candidates: contained, Query: query}
	}

	return fuzzy(q, query, candidates)
}

func fuzzy[T Entity](q, original string, candidates []T) Result[T] {
	var matches []scored[T]
	for _, c := range candidates {
		best := similarity.Score(q, normalize(c.DisplayName()))
		for _, f := range c.AltFields() {
			if s := similarity.Score(q, normalize(f)); s > best {
				best = s
			}
		}
		if best >= MinSimilarity {
			matches = append(matches, scored[T]{entity: c, score: best})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	switch {
	case len(matches) == 0:
		return NotFound[T]{Query: original}
	case len(matches) == 1 && matches[0].score >= HighConfidence:
		return Found[T]{Entity: matches[0].entity}
	case len(matches) == 1:
		return NeedsConfirmation[T]{Candidate: matches[0].entity, Similarity: matches[0].score, Query: original}
	case matches[0].score-matches[1].score > ConfidenceGap:
		return NeedsConfirmation[T]{Candidate: matches[0].entity, Similarity: matches[0].score, Query: original}
	}

	top := matches
	if len(top) > maxAmbiguous {
		top = top[:maxAmbiguous]
	}
	out := make([]T, 0, len(top))
	for _, m := range top {
		out = append(out, m.entity)
	}
	return Ambiguous[T]{Candidates: out, Query: original}
}

func containsEither(q string, c Entity) bool {
	texts := append([]string{c.DisplayName()}, c.AltFields()...)
	for _, t := range texts {
		n := normalize(t)
		if n == "" {
			continue
		}
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Label names the variant of r, for logs, metrics and API responses.
func Label[T Entity](r Result[T]) string {
	switch r.(type) {
	case Found[T]:
		return "found"
	case Ambiguous[T]:
		return "ambiguous"
	case NeedsConfirmation[T]:
		return "needs_confirmation"
	default:
		return "not_found"
	}
}
