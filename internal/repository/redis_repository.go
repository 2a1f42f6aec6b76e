package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

// maxTxRetries bounds optimistic transaction retries when a watched key changes.
const maxTxRetries = 5

type redisRepository struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisRepository stores each session as one JSON value and indexes an
// owner's sessions in a sorted set ordered by last update.
func NewRedisRepository(rdb *redis.Client) Repository {
	return &redisRepository{
		rdb: rdb,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Key Generation Helpers. Components are escaped so ":" inside an id cannot
// make two different (owner, session) pairs share a key.
func (r *redisRepository) sessionKey(ownerID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", url.QueryEscape(ownerID), url.QueryEscape(sessionID))
}
func (r *redisRepository) userSessionsKey(ownerID string) string {
	return fmt.Sprintf("user:%s:sessions", url.QueryEscape(ownerID))
}

// listScore sorts newer sessions first with an ascending ZRANGE.
func listScore(t time.Time) float64 { return float64(-t.UnixNano()) }

// --- Session Operations ---
func (r *redisRepository) CreateSession(ctx context.Context, session *model.Session) (model.CreateStatus, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("could not encode session: %w", err)
	}
	key := r.sessionKey(session.OwnerID, session.ID)

	var status model.CreateStatus
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			status = model.StatusExists
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, r.userSessionsKey(session.OwnerID), redis.Z{Score: listScore(session.UpdatedAt), Member: session.ID})
			return nil
		})
		status = model.StatusCreated
		return err
	}
	if err := r.watch(ctx, txf, key); err != nil {
		return "", fmt.Errorf("could not create session: %w", err)
	}
	return status, nil
}

func (r *redisRepository) GetSession(ctx context.Context, ownerID, sessionID string) (*model.Session, error) {
	data, err := r.rdb.Get(ctx, r.sessionKey(ownerID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeSession(data)
}

func (r *redisRepository) ListSessions(ctx context.Context, ownerID string) ([]*model.Session, error) {
	ids, err := r.rdb.ZRange(ctx, r.userSessionsKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	sessions := make([]*model.Session, 0, len(ids))
	if len(ids) == 0 {
		return sessions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(ownerID, id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record; skipped until the next delete cleans it up.
			continue
		}
		s, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	sortByUpdated(sessions)
	return sessions, nil
}

func (r *redisRepository) AppendTurns(ctx context.Context, ownerID, sessionID string, turns []model.Turn, derivedTitle string) error {
	return r.update(ctx, ownerID, sessionID, func(s *model.Session) {
		applyAppend(s, turns, derivedTitle, r.now())
	})
}

func (r *redisRepository) RenameSession(ctx context.Context, ownerID, sessionID, title string) error {
	return r.update(ctx, ownerID, sessionID, func(s *model.Session) {
		applyRename(s, title, r.now())
	})
}

func (r *redisRepository) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	key := r.sessionKey(ownerID, sessionID)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, r.userSessionsKey(ownerID), sessionID)
			return nil
		})
		return err
	}
	return r.watch(ctx, txf, key)
}

func (r *redisRepository) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

// update runs a read-modify-write of one session under WATCH.
func (r *redisRepository) update(ctx context.Context, ownerID, sessionID string, fn func(s *model.Session)) error {
	key := r.sessionKey(ownerID, sessionID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		s, err := decodeSession(data)
		if err != nil {
			return err
		}
		fn(s)
		next, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("could not encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			pipe.ZAdd(ctx, r.userSessionsKey(ownerID), redis.Z{Score: listScore(s.UpdatedAt), Member: sessionID})
			return nil
		})
		return err
	}
	return r.watch(ctx, txf, key)
}

func (r *redisRepository) watch(ctx context.Context, txf func(tx *redis.Tx) error, key string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %s kept conflicting after %d attempts", key, maxTxRetries)
}

// --- Helper Functions ---
func decodeSession(data []byte) (*model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not decode session: %w", err)
	}
	if s.Turns == nil {
		s.Turns = []model.Turn{}
	}
	return &s, nil
}
