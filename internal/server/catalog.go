package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/types"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	resp, err := s.resolver.ResolveKind(r.Context(), kind, q)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateMaintainer(w http.ResponseWriter, r *http.Request) {
	var m catalog.Maintainer
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := s.catalog.CreateMaintainer(r.Context(), m)
	if err != nil {
		s.log.Error().Ctx(r.Context()).Err(err).Str("name", m.Name).Msg("failed to create maintainer")
		writeError(w, http.StatusBadGateway, "could not create maintainer")
		return
	}
	writeJSON(w, http.StatusCreated, types.CreatedResponse{ID: id})
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var l catalog.Location
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := s.catalog.CreateLocation(r.Context(), l)
	if err != nil {
		s.log.Error().Ctx(r.Context()).Err(err).Str("name", l.Name).Msg("failed to create location")
		writeError(w, http.StatusBadGateway, "could not create location")
		return
	}
	writeJSON(w, http.StatusCreated, types.CreatedResponse{ID: id})
}
