package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/llm"
	"github.com/Dhruvipatel1708/chatbot/internal/lock"
	"github.com/Dhruvipatel1708/chatbot/internal/metrics"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
	"github.com/Dhruvipatel1708/chatbot/internal/normalize"
	"github.com/Dhruvipatel1708/chatbot/internal/prompt"
	"github.com/Dhruvipatel1708/chatbot/internal/repository"
)

const (
	modeSync   = "sync"
	modeStream = "stream"

	// PersistBudget is the time left for store work on top of the generation timeout.
	// A distributed session lock must outlive GenerationTimeout+PersistBudget.
	PersistBudget = 30 * time.Second
)

// ChatOptions tunes how exchanges are generated.
type ChatOptions struct {
	Model        string
	HistoryLimit int
	// Timeout bounds the generation call; the provider enforces it as well.
	Timeout time.Duration
	Options *llm.RequestOptions
}

// ChatResult is the outcome of a completed exchange.
type ChatResult struct {
	SessionID string     `json:"session_id"`
	Reply     string     `json:"response"`
	UserTurn  model.Turn `json:"-"`
	ReplyTurn model.Turn `json:"-"`
}

// ChatService runs chat exchanges: one user turn in, one assistant turn out,
// both persisted together only after generation succeeds.
type ChatService struct {
	repo     repository.Repository
	llm      llm.LLMProvider
	locker   lock.Locker
	composer *prompt.Composer
	opts     ChatOptions
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewChatService(
	repo repository.Repository,
	provider llm.LLMProvider,
	locker lock.Locker,
	composer *prompt.Composer,
	opts ChatOptions,
	log *zap.SugaredLogger,
) *ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &ChatService{
		repo:     repo,
		llm:      provider,
		locker:   locker,
		composer: composer,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Chat runs a synchronous exchange and returns the cleaned reply.
func (s *ChatService) Chat(ctx context.Context, owner, sessionID, text string) (*ChatResult, error) {
	result, err := s.exchange(ctx, owner, sessionID, text, modeSync, func(ctx context.Context, req *llm.GenerateRequest) (string, error) {
		resp, err := s.llm.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Response, nil
	})
	s.record(modeSync, owner, sessionID, err)
	return result, err
}

// ChatStream runs a streaming exchange. Fragments are sent to out as they
// arrive; the last frame is either Done with the full cleaned reply or carries
// the error. out is always closed. A caller that goes away (ctx done) stops
// receiving, but the exchange still runs to completion and is persisted.
func (s *ChatService) ChatStream(ctx context.Context, owner, sessionID, text string, out chan<- model.StreamResponse) {
	r := newRelay(ctx, out)
	defer r.close()

	result, err := s.exchange(ctx, owner, sessionID, text, modeStream, func(ctx context.Context, req *llm.GenerateRequest) (string, error) {
		req.Stream = true
		ch := make(chan llm.StreamChunk)
		errCh := make(chan error, 1)
		go func() { errCh <- s.llm.GenerateStream(ctx, req, ch) }()

		var full strings.Builder
		for chunk := range ch {
			if chunk.Content == "" {
				continue
			}
			full.WriteString(chunk.Content)
			r.push(model.StreamResponse{Content: chunk.Content})
		}
		if err := <-errCh; err != nil {
			return "", err
		}
		return full.String(), nil
	})
	s.record(modeStream, owner, sessionID, err)

	if err != nil {
		r.push(model.StreamResponse{Error: app_errors.Message(err), Done: true, Err: err})
		return
	}
	r.push(model.StreamResponse{Content: result.Reply, Done: true})
}

type generateFunc func(ctx context.Context, req *llm.GenerateRequest) (string, error)

func (s *ChatService) exchange(ctx context.Context, owner, sessionID, text, mode string, generate generateFunc) (*ChatResult, error) {
	receivedAt := s.now()

	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", app_errors.ErrValidation)
	}

	// Waiting for the lock follows the caller; once we hold it the exchange is
	// detached so a dropped connection still gets its turns persisted.
	unlock, err := s.locker.Lock(ctx, owner+"/"+sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout+PersistBudget)
	defer cancel()

	session, err := s.repo.GetSession(exCtx, owner, sessionID)
	if err != nil {
		return nil, translateStoreError(err, sessionID)
	}

	history := Window(session.Turns, s.opts.HistoryLimit)
	req := &llm.GenerateRequest{
		Model:   s.opts.Model,
		Prompt:  s.composer.Compose(history, text),
		Options: s.opts.Options,
	}

	s.log.Debugw("Generating reply",
		"session_id", sessionID, "owner_id", owner, "mode", mode,
		"history_turns", len(history), "prompt_version", s.composer.Version(), "prompt_chars", len(req.Prompt))

	start := time.Now()
	raw, err := generate(exCtx, req)
	metrics.ObserveGeneration(s.llm.Name(), mode, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	reply := normalize.Clean(raw)
	if reply == "" {
		return nil, fmt.Errorf("%w: backend returned an empty reply", app_errors.ErrGenerationUnavailable)
	}

	userAt := receivedAt
	if last := session.LastTimestamp(); userAt.Before(last) {
		userAt = last
	}
	replyAt := s.now()
	if replyAt.Before(userAt) {
		replyAt = userAt
	}
	userTurn := model.Turn{ID: uuid.NewString(), Role: model.RoleUser, Content: text, Timestamp: userAt}
	replyTurn := model.Turn{ID: uuid.NewString(), Role: model.RoleAssistant, Content: reply, Timestamp: replyAt}

	var title string
	if session.TitleState == model.TitleSentinel {
		first, ok := firstUserText(session.Turns)
		if !ok {
			first = text
		}
		title = DeriveTitle(first)
	}

	if err := s.repo.AppendTurns(exCtx, owner, sessionID, []model.Turn{userTurn, replyTurn}, title); err != nil {
		return nil, translateStoreError(err, sessionID)
	}

	return &ChatResult{SessionID: sessionID, Reply: reply, UserTurn: userTurn, ReplyTurn: replyTurn}, nil
}

// record logs the outcome of an exchange and counts it.
func (s *ChatService) record(mode, owner, sessionID string, err error) {
	outcome := outcomeOf(err)
	metrics.IncExchange(mode, outcome)

	switch outcome {
	case "ok":
		s.log.Infow("Exchange completed", "session_id", sessionID, "owner_id", owner, "mode", mode)
	case "invalid", "not_found", "busy":
		s.log.Warnw("Exchange rejected", "session_id", sessionID, "owner_id", owner, "mode", mode, "outcome", outcome, "error", err)
	default:
		s.log.Errorw("Exchange failed", "session_id", sessionID, "owner_id", owner, "mode", mode, "outcome", outcome, "error", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, app_errors.ErrValidation), errors.Is(err, app_errors.ErrUnauthorized):
		return "invalid"
	case errors.Is(err, app_errors.ErrNotFound):
		return "not_found"
	case errors.Is(err, app_errors.ErrConflict):
		return "busy"
	case errors.Is(err, app_errors.ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, app_errors.ErrGenerationUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func translateStoreError(err error, sessionID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: session %q", app_errors.ErrNotFound, sessionID)
	}
	return fmt.Errorf("%w: %v", app_errors.ErrInternal, err)
}
