package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

type memoryRepository struct {
	// mu serializes read-modify-write cycles; the cache itself only guards single calls.
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

// NewMemoryRepository returns a process-local store. Sessions never expire.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		cache: cache.New(cache.NoExpiration, 0),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func memoryKey(ownerID, sessionID string) string { return ownerID + "\x00" + sessionID }

func (r *memoryRepository) CreateSession(ctx context.Context, session *model.Session) (model.CreateStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cache.Add(memoryKey(session.OwnerID, session.ID), session.Clone(), cache.NoExpiration); err != nil {
		return model.StatusExists, nil
	}
	return model.StatusCreated, nil
}

func (r *memoryRepository) GetSession(ctx context.Context, ownerID, sessionID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.get(ownerID, sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (r *memoryRepository) ListSessions(ctx context.Context, ownerID string) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := ownerID + "\x00"
	sessions := make([]*model.Session, 0)
	for key, item := range r.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		sessions = append(sessions, item.Object.(*model.Session).Clone())
	}
	sortByUpdated(sessions)
	return sessions, nil
}

func (r *memoryRepository) AppendTurns(ctx context.Context, ownerID, sessionID string, turns []model.Turn, derivedTitle string) error {
	return r.update(ownerID, sessionID, func(s *model.Session) {
		applyAppend(s, turns, derivedTitle, r.now())
	})
}

func (r *memoryRepository) RenameSession(ctx context.Context, ownerID, sessionID, title string) error {
	return r.update(ownerID, sessionID, func(s *model.Session) {
		applyRename(s, title, r.now())
	})
}

func (r *memoryRepository) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.get(ownerID, sessionID); !ok {
		return ErrNotFound
	}
	r.cache.Delete(memoryKey(ownerID, sessionID))
	return nil
}

func (r *memoryRepository) Ping(ctx context.Context) error { return nil }

func (r *memoryRepository) get(ownerID, sessionID string) (*model.Session, bool) {
	x, found := r.cache.Get(memoryKey(ownerID, sessionID))
	if !found {
		return nil, false
	}
	return x.(*model.Session), true
}

// update applies fn to a copy and swaps it in, so a reader never sees a half-applied change.
func (r *memoryRepository) update(ownerID, sessionID string, fn func(s *model.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.get(ownerID, sessionID)
	if !ok {
		return ErrNotFound
	}
	next := s.Clone()
	fn(next)
	r.cache.Set(memoryKey(ownerID, sessionID), next, cache.NoExpiration)
	return nil
}
