package repository

import (
	"context"
	"sort"
	"time"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

// Repository defines the interface for session storage operations.
// Every method is scoped by owner: a session owned by someone else behaves
// exactly like a session that does not exist.
type Repository interface {
	CreateSession(ctx context.Context, session *model.Session) (model.CreateStatus, error)
	GetSession(ctx context.Context, ownerID, sessionID string) (*model.Session, error)
	ListSessions(ctx context.Context, ownerID string) ([]*model.Session, error)

	// AppendTurns appends turns and refreshes updated_at in one atomic write.
	// A non-empty derivedTitle replaces the title only while the session still
	// carries the sentinel title.
	AppendTurns(ctx context.Context, ownerID, sessionID string, turns []model.Turn, derivedTitle string) error
	RenameSession(ctx context.Context, ownerID, sessionID, title string) error
	DeleteSession(ctx context.Context, ownerID, sessionID string) error

	Ping(ctx context.Context) error
}

// applyAppend mutates s the same way every driver's AppendTurns does.
func applyAppend(s *model.Session, turns []model.Turn, derivedTitle string, now time.Time) {
	s.Turns = append(s.Turns, turns...)
	if derivedTitle != "" && s.TitleState == model.TitleSentinel {
		s.Title = derivedTitle
		s.TitleState = model.TitleDerived
	}
	s.UpdatedAt = now
}

func applyRename(s *model.Session, title string, now time.Time) {
	s.Title = title
	s.TitleState = model.TitleUser
	s.UpdatedAt = now
}

// sortByUpdated orders sessions most-recently-updated first.
func sortByUpdated(sessions []*model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
}
