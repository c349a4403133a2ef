package server

import (
	"encoding/json"
	"math"
	"net/http"

	"inventory-voice-assistant/internal/types"
)

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req types.FocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := s.sessionFor(w, r, "")
	conv := s.sessions.get(sid)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	st := conv.state
	if req.Product != nil {
		st = st.WithFocus(*req.Product)
	} else {
		st = st.ClearFocus()
	}
	if req.Results != nil {
		st = st.WithSearchResults(req.Results)
	}
	conv.state = st
	writeJSON(w, http.StatusOK, types.FocusResponse{SessionID: sid, Focus: st.FocusSummary()})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if sid := getSessionID(r); sid != "" {
		s.sessions.remove(sid)
	}
	ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionFor(w, r, "")
	limiter := s.sessions.orchestratorFor(clientIP(r)).Limiter()
	resp := types.LimitsResponse{
		SessionID: sid,
		Remaining: limiter.Remaining(),
		Max:       limiter.Max(),
	}
	if resp.Remaining == 0 {
		resp.RetryAfterSeconds = int(math.Ceil(limiter.RetryAfter().Seconds()))
	}
	writeJSON(w, http.StatusOK, resp)
}
