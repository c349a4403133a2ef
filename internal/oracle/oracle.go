// Package oracle talks to the text-completion model that reads the user's
// dictation.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrTruncated: the reply was cut short or filtered.
	ErrTruncated = errors.New("oracle: truncated response")
	// ErrMalformed: the reply was empty or unusable.
	ErrMalformed = errors.New("oracle: malformed response")
	// ErrTransport: the request did not complete.
	ErrTransport = errors.New("oracle: transport failure")
)

// Oracle completes a prompt with free text.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

type Config struct {
	APIKey string
	// BaseURL overrides the OpenAI endpoint, e.g. for a compatible gateway.
	BaseURL     string
	Model       string
	STTModel    string
	Temperature float32
	MaxTokens   int
}

// OpenAI implements Oracle and Transcriber with the chat completion and
// audio transcription endpoints.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

var (
	_ Oracle      = (*OpenAI)(nil)
	_ Transcriber = (*OpenAI)(nil)
)

func NewOpenAI(cfg Config) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.STTModel == "" {
		cfg.STTModel = openai.Whisper1
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Complete sends the prompt as a single system message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformed)
	}

	choice := resp.Choices[0]
	switch choice.FinishReason {
	case openai.FinishReasonLength, openai.FinishReasonContentFilter:
		return "", fmt.Errorf("%w: finish reason %s", ErrTruncated, choice.FinishReason)
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformed)
	}
	return text, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	tr, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.STTModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", ErrMalformed)
	}
	return text, nil
}

// Func adapts a function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
