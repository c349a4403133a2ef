package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/config"
	"inventory-voice-assistant/internal/logging"
	"inventory-voice-assistant/internal/metrics"
	"inventory-voice-assistant/internal/oracle"
	"inventory-voice-assistant/internal/orchestrator"
	"inventory-voice-assistant/internal/prompt"
	"inventory-voice-assistant/internal/ratelimit"
	"inventory-voice-assistant/internal/resolver"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Oracle      oracle.Oracle
	Transcriber oracle.Transcriber
	Prompt      *prompt.Spec
	Catalog     catalog.Store
	Metrics     *metrics.Recorder
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	// Health is probed by /api/health when set.
	Health func(context.Context) error
}

type Server struct {
	router      *chi.Mux
	cfg         config.Config
	sessions    *sessionStore
	resolver    *resolver.Service
	catalog     catalog.Writer
	transcriber oracle.Transcriber
	health      func(context.Context) error
	log         zerolog.Logger
}

func NewServer(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	spec := deps.Prompt
	if spec == nil {
		var err error
		if spec, err = prompt.Default(); err != nil {
			return nil, fmt.Errorf("failed to load default prompt: %w", err)
		}
	}

	res := resolver.NewService(deps.Catalog, resolver.WithMetrics(deps.Metrics))
	factory := func() *orchestrator.Orchestrator {
		return orchestrator.New(deps.Oracle, spec, res,
			ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow),
			orchestrator.WithMetrics(deps.Metrics),
			orchestrator.WithOracleTimeout(cfg.OracleTimeout),
		)
	}

	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = CookieMaxAge
	}
	clientTTL := cfg.RateLimitWindow + time.Minute
	if clientTTL < ttl {
		clientTTL = ttl
	}

	s := &Server{
		router:      chi.NewRouter(),
		cfg:         cfg,
		sessions:    newSessionStore(maxSessions, ttl, clientTTL, factory, deps.Metrics),
		resolver:    res,
		catalog:     deps.Catalog,
		transcriber: deps.Transcriber,
		health:      deps.Health,
		log:         logging.Component("server"),
	}
	s.routes(deps.Gatherer)
	return s, nil
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/api/health", s.handleHealth)
	if gatherer == nil {
		s.router.Handle("/metrics", promhttp.Handler())
	} else {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(floodMiddleware(floodConfig{
			RequestsPerMinute: s.cfg.HTTPRequestsPerMinute,
			Burst:             s.cfg.HTTPBurst,
		}))

		r.Post("/api/chat", s.handleChat)
		r.Post("/api/voice", s.handleVoice)
		r.Post("/api/scan", s.handleScan)

		r.Post("/api/session/focus", s.handleFocus)
		r.Delete("/api/session", s.handleResetSession)
		r.Get("/api/session/limits", s.handleLimits)

		r.Get("/api/resolve/{kind}", s.handleResolve)
		r.Post("/api/catalog/maintainers", s.handleCreateMaintainer)
		r.Post("/api/catalog/locations", s.handleCreateLocation)
	})
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.log.Debug().Ctx(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.Error().Ctx(ctx).Err(err).Msg("health check failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{"status": status, "sessions": s.sessions.len()})
}

// sessionFor returns the caller's session ID, minting one and setting the
// cookie when the request carries none.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request, fromBody string) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = fromBody
	}
	if sid == "" {
		sid = newSessionID()
		s.log.Debug().Str("session_id", sid).Str("path", r.URL.Path).Msg("creating new session")
		SetSessionCookie(w, sid, s.cfg.SessionTTL)
	}
	w.Header().Set("X-Session-Id", sid)
	return sid
}
