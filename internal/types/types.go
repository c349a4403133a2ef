package types

import (
	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/resolver"
)

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID            string         `json:"sessionId"`
	Reply                string         `json:"reply"`
	Transcript           string         `json:"transcript,omitempty"`
	Outcome              string         `json:"outcome"`
	Action               *ActionPayload `json:"action,omitempty"`
	Missing              []string       `json:"missing,omitempty"`
	AwaitingConfirmation bool           `json:"awaitingConfirmation"`
	Task                 *TaskView      `json:"task,omitempty"`
}

// ActionPayload is an action the frontend should carry out or is being
// asked to confirm.
type ActionPayload struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
	Risk   string            `json:"risk"`
}

// TaskView is the draft record the conversation is filling in.
type TaskView struct {
	Kind     string            `json:"kind"`
	Fields   map[string]string `json:"fields"`
	Missing  []string          `json:"missing,omitempty"`
	Complete bool              `json:"complete"`
}

type ScanRequest struct {
	SessionID string `json:"sessionId"`
	Barcode   string `json:"barcode"`
}

// FocusRequest reports what the frontend showed after executing an action.
// A nil Product clears the focus; nil Results leaves the last search as is.
type FocusRequest struct {
	Product *catalog.Product  `json:"product"`
	Results []catalog.Product `json:"results,omitempty"`
}

type FocusResponse struct {
	SessionID string `json:"sessionId"`
	Focus     string `json:"focus,omitempty"`
}

type LimitsResponse struct {
	SessionID         string `json:"sessionId"`
	Remaining         int    `json:"remaining"`
	Max               int    `json:"max"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// ResolveResponse mirrors a resolver result.
type ResolveResponse = resolver.Summary

type CreatedResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
