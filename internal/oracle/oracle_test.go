package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body any) (*httptest.Server, *string) {
	t.Helper()
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPrompt
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	}
}

func TestOpenAI_Complete(t *testing.T) {
	srv, prompt := chatServer(t, http.StatusOK, completion("  Fatto. [ACTION:search:frigo]  ", "stop"))
	o := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})

	got, err := o.Complete(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "Fatto. [ACTION:search:frigo]", got)
	assert.Equal(t, "PROMPT", *prompt)
}

func TestOpenAI_CompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{"length", http.StatusOK, completion("Ti preparo", "length"), ErrTruncated},
		{"content filter", http.StatusOK, completion("", "content_filter"), ErrTruncated},
		{"empty", http.StatusOK, completion("   ", "stop"), ErrMalformed},
		{"no choices", http.StatusOK, map[string]any{"id": "x", "choices": []any{}}, ErrMalformed},
		{"server error", http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "boom", "type": "server_error"}}, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, tt.status, tt.body)
			o := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})

			_, err := o.Complete(context.Background(), "p")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAI_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			b, _ := io.ReadAll(f)
			assert.Equal(t, "RIFF", string(b))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" ho riparato il frigo "}`)
	}))
	defer srv.Close()

	o := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL})
	got, err := o.Transcribe(context.Background(), "note.wav", strings.NewReader("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "ho riparato il frigo", got)
}

func TestFunc(t *testing.T) {
	var o Oracle = Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo " + prompt, nil
	})
	got, err := o.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo x", got)
}
