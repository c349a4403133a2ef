package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventory-voice-assistant/internal/dialogue"
	"inventory-voice-assistant/internal/logging"
	"inventory-voice-assistant/internal/orchestrator"
	"inventory-voice-assistant/internal/types"
)

const transcriptionTimeout = 180 * time.Second

type turnFunc func(ctx context.Context, orc *orchestrator.Orchestrator, st dialogue.State) (dialogue.State, orchestrator.Outcome, error)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.sessionFor(w, r, req.SessionID)
	s.runTurn(w, r, sid, "", func(ctx context.Context, orc *orchestrator.Orchestrator, st dialogue.State) (dialogue.State, orchestrator.Outcome, error) {
		return orc.Advance(ctx, st, req.Message)
	})
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, http.StatusNotImplemented, "voice input is not configured")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required (field 'file')")
		return
	}
	defer file.Close()
	sid := s.sessionFor(w, r, r.FormValue("sessionId"))

	ctx, cancel := context.WithTimeout(logging.WithSessionID(r.Context(), sid), transcriptionTimeout)
	defer cancel()
	transcript, err := s.transcriber.Transcribe(ctx, header.Filename, file)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("transcription failed")
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		writeError(w, http.StatusBadGateway, "empty transcription")
		return
	}

	s.runTurn(w, r, sid, transcript, func(ctx context.Context, orc *orchestrator.Orchestrator, st dialogue.State) (dialogue.State, orchestrator.Outcome, error) {
		return orc.Advance(ctx, st, transcript)
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := s.sessionFor(w, r, req.SessionID)
	s.runTurn(w, r, sid, "", func(ctx context.Context, orc *orchestrator.Orchestrator, st dialogue.State) (dialogue.State, orchestrator.Outcome, error) {
		return orc.ApplyBarcode(ctx, st, req.Barcode)
	})
}

// runTurn advances the session's conversation under its lock, charging the
// caller's address, and stores the new state only when the step succeeded.
func (s *Server) runTurn(w http.ResponseWriter, r *http.Request, sid, transcript string, step turnFunc) {
	conv := s.sessions.get(sid)
	orc := s.sessions.orchestratorFor(clientIP(r))
	conv.mu.Lock()
	defer conv.mu.Unlock()

	ctx := logging.WithSessionID(r.Context(), sid)
	next, out, err := step(ctx, orc, conv.state)
	if err != nil {
		s.writeTurnError(ctx, w, orc, err)
		return
	}
	conv.state = next
	writeJSON(w, http.StatusOK, chatResponse(sid, transcript, next, out))
}

func (s *Server) writeTurnError(ctx context.Context, w http.ResponseWriter, orc *orchestrator.Orchestrator, err error) {
	var inputErr *orchestrator.InputError
	switch {
	case errors.Is(err, orchestrator.ErrRateLimited):
		if wait := orc.Limiter().RetryAfter(); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.log.Info().Ctx(ctx).Err(err).Msg("turn abandoned")
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.log.Error().Ctx(ctx).Err(err).Msg("turn failed")
		writeError(w, http.StatusInternalServerError, "I'm having trouble right now. Please try again.")
	}
}

func chatResponse(sid, transcript string, st dialogue.State, out orchestrator.Outcome) types.ChatResponse {
	resp := types.ChatResponse{
		SessionID:            sid,
		Reply:                out.Text,
		Transcript:           transcript,
		Outcome:              string(out.Kind),
		Missing:              out.Missing,
		AwaitingConfirmation: st.AwaitingConfirmation(),
	}
	if out.Action != nil {
		payload := &types.ActionPayload{Type: string(out.Action.Type), Params: out.Action.Params}
		if out.Risk != nil {
			payload.Risk = out.Risk.String()
		}
		resp.Action = payload
	}
	if task := st.Task(); task != nil {
		resp.Task = &types.TaskView{
			Kind:     string(task.Kind()),
			Fields:   task.Fields(),
			Missing:  task.RequiredMissing(),
			Complete: dialogue.IsComplete(task),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}
