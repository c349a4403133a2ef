package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies session_id and request_id from the event context.
type ContextHook struct{}

func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}
	if id := GetSessionID(ctx); id != "" {
		e.Str("session_id", id)
	}
	if id := GetRequestID(ctx); id != "" {
		e.Str("request_id", id)
	}
}
