package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
	"github.com/Dhruvipatel1708/chatbot/internal/repository"
)

// SessionService owns the session lifecycle outside of chat exchanges.
type SessionService struct {
	repo repository.Repository
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewSessionService(repo repository.Repository, log *zap.SugaredLogger) *SessionService {
	return &SessionService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a session under owner. Creating an existing id reports
// StatusExists and leaves the stored session untouched.
func (s *SessionService) Create(ctx context.Context, owner, sessionID, title string) (model.CreateStatus, error) {
	if err := requireOwner(owner); err != nil {
		return "", err
	}
	if err := requireSessionID(sessionID); err != nil {
		return "", err
	}

	title = strings.TrimSpace(title)
	state := model.TitleUser
	if title == "" || title == model.DefaultTitle {
		title = model.DefaultTitle
		state = model.TitleSentinel
	}

	now := s.now()
	status, err := s.repo.CreateSession(ctx, &model.Session{
		ID:         sessionID,
		OwnerID:    owner,
		Title:      title,
		TitleState: state,
		Turns:      []model.Turn{},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		s.log.Errorw("Failed to create session", "session_id", sessionID, "owner_id", owner, "error", err)
		return "", fmt.Errorf("%w: could not create session: %v", app_errors.ErrInternal, err)
	}

	s.log.Infow("Session create", "session_id", sessionID, "owner_id", owner, "status", status)
	return status, nil
}

// List returns the owner's sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context, owner string) ([]model.SessionSummary, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListSessions(ctx, owner)
	if err != nil {
		s.log.Errorw("Failed to list sessions", "owner_id", owner, "error", err)
		return nil, fmt.Errorf("%w: could not list sessions: %v", app_errors.ErrInternal, err)
	}

	summaries := make([]model.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, model.SessionSummary{
			ID:        sess.ID,
			Title:     sess.Title,
			Preview:   Preview(sess.Turns),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	return summaries, nil
}

// History returns the session with its full, chronologically ordered turn log.
func (s *SessionService) History(ctx context.Context, owner, sessionID string) (*model.Session, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	sess, err := s.repo.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, s.storeError("Failed to load session history", owner, sessionID, err)
	}
	return sess, nil
}

// Rename sets a user-chosen name, which auto-naming never overwrites.
func (s *SessionService) Rename(ctx context.Context, owner, sessionID, title string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := requireSessionID(sessionID); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: new_name must not be empty", app_errors.ErrValidation)
	}
	if err := s.repo.RenameSession(ctx, owner, sessionID, title); err != nil {
		return s.storeError("Failed to rename session", owner, sessionID, err)
	}
	s.log.Infow("Session renamed", "session_id", sessionID, "owner_id", owner)
	return nil
}

// Delete removes the session and all of its turns.
func (s *SessionService) Delete(ctx context.Context, owner, sessionID string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if err := requireSessionID(sessionID); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, owner, sessionID); err != nil {
		return s.storeError("Failed to delete session", owner, sessionID, err)
	}
	s.log.Infow("Session deleted", "session_id", sessionID, "owner_id", owner)
	return nil
}

// storeError logs err and translates it into the application error taxonomy.
func (s *SessionService) storeError(msg, owner, sessionID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warnw(msg, "session_id", sessionID, "owner_id", owner, "error", err)
		return fmt.Errorf("%w: session %q", app_errors.ErrNotFound, sessionID)
	}
	s.log.Errorw(msg, "session_id", sessionID, "owner_id", owner, "error", err)
	return fmt.Errorf("%w: %v", app_errors.ErrInternal, err)
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: no owner identity", app_errors.ErrUnauthorized)
	}
	return nil
}

// requireSessionID rejects blank ids. Ids are opaque otherwise: they are stored
// and looked up byte for byte, surrounding whitespace included.
func requireSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session_id must not be empty", app_errors.ErrValidation)
	}
	return nil
}
