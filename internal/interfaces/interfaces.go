package interfaces

import (
	"context"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
	"github.com/Dhruvipatel1708/chatbot/internal/service"
)

// This file defines the interfaces for our core services.
// The API layer depends on these instead of the concrete services so handlers
// can be tested against mocks.

// SessionService defines the contract for session lifecycle operations.
// Every method is scoped by owner.
type SessionService interface {
	Create(ctx context.Context, owner, sessionID, title string) (model.CreateStatus, error)
	List(ctx context.Context, owner string) ([]model.SessionSummary, error)
	History(ctx context.Context, owner, sessionID string) (*model.Session, error)
	Rename(ctx context.Context, owner, sessionID, title string) error
	Delete(ctx context.Context, owner, sessionID string) error
}

// ChatService defines the contract for chat exchanges.
type ChatService interface {
	Chat(ctx context.Context, owner, sessionID, text string) (*service.ChatResult, error)
	ChatStream(ctx context.Context, owner, sessionID, text string, out chan<- model.StreamResponse)
}

var (
	_ SessionService = (*service.SessionService)(nil)
	_ ChatService    = (*service.ChatService)(nil)
)
