package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type geminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewGeminiProvider uses the Gemini API through the official SDK with the same
// prompt-in/text-out contract as Ollama.
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration, log *zap.SugaredLogger) (LLMProvider, error) {
	return newGeminiProvider(ctx, apiKey, "", model, timeout, log)
}

// newGeminiProvider allows overriding the API endpoint; an empty baseURL uses the SDK default.
func newGeminiProvider(ctx context.Context, apiKey, baseURL, model string, timeout time.Duration, log *zap.SugaredLogger) (LLMProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: could not create client: %w", err)
	}
	return &geminiProvider{client: c, model: model, timeout: timeout, log: log}, nil
}

func (g *geminiProvider) Name() string { return "gemini" }

func (g *geminiProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.modelFor(req)
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), g.config(req.Options))
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	return &GenerateResponse{Model: model, Response: result.Text(), Done: true}, nil
}

func (g *geminiProvider) GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error {
	defer close(ch)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	for result, err := range g.client.Models.GenerateContentStream(ctx, g.modelFor(req), genai.Text(req.Prompt), g.config(req.Options)) {
		if err != nil {
			return classifyError(ctx, err)
		}
		// The SDK decodes each event itself and reports a bad one as err, so
		// unlike Ollama a malformed event ends the stream.
		var text string
		if result != nil {
			text = result.Text()
		}
		if text == "" {
			// Usage-only and safety events carry no text.
			g.log.Debugw("Skipping stream event without text", "model", g.modelFor(req))
			continue
		}
		select {
		case ch <- StreamChunk{Content: text}:
		case <-ctx.Done():
			return classifyError(ctx, ctx.Err())
		}
	}

	select {
	case ch <- StreamChunk{Done: true}:
	case <-ctx.Done():
		return classifyError(ctx, ctx.Err())
	}
	return nil
}

// Ping is a no-op: the hosted API has no cheap unauthenticated health endpoint.
func (g *geminiProvider) Ping(ctx context.Context) error { return nil }

func (g *geminiProvider) modelFor(req *GenerateRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return g.model
}

func (g *geminiProvider) config(opts *RequestOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts == nil {
		return cfg
	}
	if opts.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*opts.TopP))
	}
	if opts.NumPredict != nil {
		cfg.MaxOutputTokens = int32(*opts.NumPredict)
	}
	return cfg
}
