package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/metrics"
)

// maxLineSize bounds a single NDJSON line of a streamed reply.
const maxLineSize = 1 << 20

type ollamaProvider struct {
	client  *http.Client
	url     string
	model   string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewOllamaProvider talks to an Ollama server in prompt mode (/api/generate).
// baseURL may also be the full generate endpoint; the path is stripped.
// timeout bounds every call end to end, including reading a streamed body.
func NewOllamaProvider(baseURL, model string, timeout time.Duration, log *zap.SugaredLogger) LLMProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api/generate")
	return &ollamaProvider{
		client:  &http.Client{},
		url:     baseURL,
		model:   model,
		timeout: timeout,
		log:     log,
	}
}

func (p *ollamaProvider) Name() string { return "ollama" }

// ollamaChunk is one line of an /api/generate reply.
type ollamaChunk struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (p *ollamaProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.post(ctx, req, false)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(ctx, fmt.Errorf("could not read response body: %w", err))
	}
	var chunk ollamaChunk
	if err := json.Unmarshal(bodyBytes, &chunk); err != nil {
		return nil, fmt.Errorf("%w: could not decode response: %s", app_errors.ErrGenerationUnavailable, truncateBody(bodyBytes))
	}
	if chunk.Error != "" {
		return nil, fmt.Errorf("%w: %s", app_errors.ErrGenerationUnavailable, chunk.Error)
	}
	return &GenerateResponse{Model: chunk.Model, Response: chunk.Response, Done: chunk.Done}, nil
}

func (p *ollamaProvider) GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error {
	defer close(ch)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.post(ctx, req, true)
	if err != nil {
		return classifyError(ctx, err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// One bad line must not end an otherwise healthy stream.
			p.log.Debugw("Skipping malformed stream chunk", "error", err, "line", truncateBody(line))
			metrics.ChunkSkipped(p.Name())
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("%w: %s", app_errors.ErrGenerationUnavailable, chunk.Error)
		}

		select {
		case ch <- StreamChunk{Content: chunk.Response, Done: chunk.Done}:
		case <-ctx.Done():
			return classifyError(ctx, ctx.Err())
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return classifyError(ctx, fmt.Errorf("could not read stream: %w", err))
	}
	return nil
}

func (p *ollamaProvider) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", app_errors.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", app_errors.ErrGenerationUnavailable, resp.StatusCode)
	}
	return nil
}

// post sends the request and returns the response only for a 200 status.
func (p *ollamaProvider) post(ctx context.Context, req *GenerateRequest, stream bool) (*http.Response, error) {
	body := *req
	body.Stream = stream
	if body.Model == "" {
		body.Model = p.model
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: api returned non-200 status %d: %s",
			app_errors.ErrGenerationUnavailable, resp.StatusCode, truncateBody(bodyBytes))
	}
	return resp, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
