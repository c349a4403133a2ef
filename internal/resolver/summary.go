package resolver

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by ResolveKind for an unsupported entity kind.
var ErrUnknownKind = errors.New("unknown entity kind")

// Kinds lists the entity kinds ResolveKind accepts.
var Kinds = []string{"maintainer", "location", "assignee", "product"}

// Summary is a kind-agnostic view of a Result for transports and the CLI.
// Match is set for found and needs_confirmation, Candidates for ambiguous.
type Summary struct {
	Kind       string  `json:"kind"`
	Query      string  `json:"query"`
	Result     string  `json:"result"`
	Match      any     `json:"match,omitempty"`
	Candidates any     `json:"candidates,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

func Summarize[T Entity](kind, query string, r Result[T]) Summary {
	out := Summary{Kind: kind, Query: query, Result: Label(r)}
	switch v := r.(type) {
	case Found[T]:
		out.Match = v.Entity
	case Ambiguous[T]:
		out.Candidates = v.Candidates
	case NeedsConfirmation[T]:
		out.Match = v.Candidate
		out.Similarity = v.Similarity
	}
	return out
}

// ResolveKind resolves query against the catalog records of the named kind.
func (s *Service) ResolveKind(ctx context.Context, kind, query string) (Summary, error) {
	switch kind {
	case "maintainer":
		return Summarize(kind, query, s.Maintainer(ctx, query)), nil
	case "location":
		return Summarize(kind, query, s.Location(ctx, query)), nil
	case "assignee":
		return Summarize(kind, query, s.Assignee(ctx, query)), nil
	case "product":
		return Summarize(kind, query, s.Product(ctx, query)), nil
	}
	return Summary{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}
