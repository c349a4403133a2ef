package resolver

import (
	"context"

	"github.com/rs/zerolog"

	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/logging"
	"inventory-voice-assistant/internal/metrics"
)

// Service resolves names against a live catalog. A catalog read failure
// never aborts the caller's flow: it is logged and reported as NotFound.
type Service struct {
	catalog catalog.Reader
	log     zerolog.Logger
	metrics *metrics.Recorder
}

type Option func(*Service)

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(r catalog.Reader, opts ...Option) *Service {
	s := &Service{catalog: r, log: logging.Component("resolver")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Maintainer(ctx context.Context, query string) Result[catalog.Maintainer] {
	return resolveWith(ctx, s, "maintainer", query, s.catalog.ListMaintainers)
}

func (s *Service) Location(ctx context.Context, query string) Result[catalog.Location] {
	return resolveWith(ctx, s, "location", query, s.catalog.ListLocations)
}

func (s *Service) Assignee(ctx context.Context, query string) Result[catalog.Assignee] {
	return resolveWith(ctx, s, "assignee", query, s.catalog.ListAssignees)
}

func (s *Service) Product(ctx context.Context, query string) Result[catalog.Product] {
	return resolveWith(ctx, s, "product", query, s.catalog.ListProducts)
}

// ProductStrict is like Product but surfaces the catalog error, for callers
// that need to fall back to a different action when the lookup breaks.
func (s *Service) ProductStrict(ctx context.Context, query string) (Result[catalog.Product], error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.metrics.Resolution("product", "error")
		return NotFound[catalog.Product]{Query: query}, err
	}
	res := Resolve(query, products)
	s.metrics.Resolution("product", Label(res))
	return res, nil
}

func resolveWith[T Entity](ctx context.Context, s *Service, kind, query string, list func(context.Context) ([]T, error)) Result[T] {
	candidates, err := list(ctx)
	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Str("kind", kind).Str("query", query).Msg("catalog lookup failed, treating as not found")
		s.metrics.Resolution(kind, "error")
		return NotFound[T]{Query: query}
	}
	res := Resolve(query, candidates)
	s.metrics.Resolution(kind, Label(res))
	return res
}
