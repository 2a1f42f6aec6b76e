package model

import (
	"time"
)

// DefaultTitle is the display name of a session that has not been named yet.
const DefaultTitle = "New Chat"

// Roles a turn can have.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TitleState tracks how a session got its current display name.
// The only automatic transition is TitleSentinel -> TitleDerived.
type TitleState string

const (
	TitleSentinel TitleState = "sentinel"
	TitleDerived  TitleState = "derived"
	TitleUser     TitleState = "user"
)

// CreateStatus reports the outcome of an idempotent session create.
type CreateStatus string

const (
	StatusCreated CreateStatus = "created"
	StatusExists  CreateStatus = "exists"
)

// Session is a named, owner-scoped conversation with its full turn log inline.
type Session struct {
	ID         string     `json:"session_id" bson:"session_id"`
	OwnerID    string     `json:"user_id" bson:"user_id"`
	Title      string     `json:"session_name" bson:"session_name"`
	TitleState TitleState `json:"title_state" bson:"title_state"`
	Turns      []Turn     `json:"messages" bson:"messages"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
}

// Turn stores a single message in a session.
type Turn struct {
	ID        string    `json:"id" bson:"id"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"session_name"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StreamResponse is the structure for a single chunk in a streaming response.
type StreamResponse struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
	// Err is the typed cause behind Error, for callers that map it to a status.
	Err error `json:"-"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Turns = make([]Turn, len(s.Turns))
	copy(c.Turns, s.Turns)
	return &c
}

// LastTimestamp returns the timestamp of the newest turn, or the zero time.
func (s *Session) LastTimestamp() time.Time {
	if len(s.Turns) == 0 {
		return time.Time{}
	}
	return s.Turns[len(s.Turns)-1].Timestamp
}
