package llm

import (
	"context"
	"errors"
	"fmt"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
)

// StreamChunk is one text fragment of a streamed generation.
type StreamChunk struct {
	Content string
	Done    bool
}

// LLMProvider defines the interface for interacting with a language model.
type LLMProvider interface {
	// Generate returns the complete reply in one piece.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	// GenerateStream sends fragments to ch in arrival order and closes ch before
	// returning. The sequence cannot be resumed; a retry is a new call.
	GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Name identifies the provider in logs and metrics.
	Name() string
}

// GenerateRequest is the prompt-in side of the backend contract.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options *RequestOptions `json:"options,omitempty"`
}

// RequestOptions carries sampling parameters. Nil fields use the backend defaults.
type RequestOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the text-out side of the backend contract.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// classifyError maps a failed call onto the generation error taxonomy.
// callCtx is the context the call ran under, including its deadline.
func classifyError(callCtx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", app_errors.ErrGenerationTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, app_errors.ErrGenerationUnavailable), errors.Is(err, app_errors.ErrGenerationTimeout):
		return err
	default:
		return fmt.Errorf("%w: %v", app_errors.ErrGenerationUnavailable, err)
	}
}
