package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository stores one row per session with its turn log inline as JSON.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const sessionColumns = "session_id, owner_id, title, title_state, turns, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var s model.Session
	var state, turns string
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &state, &turns, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.TitleState = model.TitleState(state)
	if err := json.Unmarshal([]byte(turns), &s.Turns); err != nil {
		return nil, fmt.Errorf("could not decode turns of session %s: %w", s.ID, err)
	}
	if s.Turns == nil {
		s.Turns = []model.Turn{}
	}
	return &s, nil
}

func encodeTurns(turns []model.Turn) (string, error) {
	if turns == nil {
		turns = []model.Turn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("could not encode turns: %w", err)
	}
	return string(b), nil
}

func (r *sqliteRepository) CreateSession(ctx context.Context, session *model.Session) (model.CreateStatus, error) {
	turns, err := encodeTurns(session.Turns)
	if err != nil {
		return "", err
	}
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, session_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		string(session.TitleState),
		turns,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("could not insert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("could not read insert result: %w", err)
	}
	if n == 0 {
		return model.StatusExists, nil
	}
	return model.StatusCreated, nil
}

func (r *sqliteRepository) GetSession(ctx context.Context, ownerID, sessionID string) (*model.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE owner_id = ? AND session_id = ?"
	s, err := scanSession(r.db.QueryRowContext(ctx, query, ownerID, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *sqliteRepository) ListSessions(ctx context.Context, ownerID string) ([]*model.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE owner_id = ? ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AppendTurns reads, extends and rewrites the inline turn log inside one transaction.
func (r *sqliteRepository) AppendTurns(ctx context.Context, ownerID, sessionID string, turns []model.Turn, derivedTitle string) error {
	return r.update(ctx, ownerID, sessionID, func(s *model.Session) {
		applyAppend(s, turns, derivedTitle, r.now())
	})
}

func (r *sqliteRepository) RenameSession(ctx context.Context, ownerID, sessionID, title string) error {
	query := "UPDATE sessions SET title = ?, title_state = ?, updated_at = ? WHERE owner_id = ? AND session_id = ?"
	res, err := r.db.ExecContext(ctx, query, title, string(model.TitleUser), r.now(), ownerID, sessionID)
	if err != nil {
		return fmt.Errorf("could not rename session: %w", err)
	}
	return requireAffected(res)
}

func (r *sqliteRepository) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE owner_id = ? AND session_id = ?", ownerID, sessionID)
	if err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return requireAffected(res)
}

func (r *sqliteRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *sqliteRepository) update(ctx context.Context, ownerID, sessionID string, fn func(s *model.Session)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer func() { _ = tx.Rollback() }()

	query := "SELECT " + sessionColumns + " FROM sessions WHERE owner_id = ? AND session_id = ?"
	s, err := scanSession(tx.QueryRowContext(ctx, query, ownerID, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	fn(s)

	turns, err := encodeTurns(s.Turns)
	if err != nil {
		return err
	}
	updateQuery := `
		UPDATE sessions SET title = ?, title_state = ?, turns = ?, updated_at = ?
		WHERE owner_id = ? AND session_id = ?
	`
	if _, err := tx.ExecContext(ctx, updateQuery, s.Title, string(s.TitleState), turns, s.UpdatedAt, ownerID, sessionID); err != nil {
		return fmt.Errorf("could not update session: %w", err)
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
