// Package store provides durable, append-only persistence for chat sessions
// and their messages.
package store

import (
	"context"
	"errors"

	"github.com/ravanos/chatd/internal/domain"
)

var (
	// ErrSessionNotFound is returned when an operation references a session
	// that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageUnavailable wraps underlying storage I/O failures. The store
	// never retries internally; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SessionStore is the persistence contract for sessions and messages.
//
// Messages within a session, ordered by ID, reproduce the exact chronological
// turn sequence; that ordering is the sole contract the conversation runner
// relies on to reconstruct history.
type SessionStore interface {
	// CreateSession allocates a fresh session for ownerID with the given title.
	CreateSession(ctx context.Context, ownerID, title string) (*domain.Session, error)

	// GetSession returns a session by ID or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns ownerID's sessions, most recently active first,
	// enriched with message counts and last-message times, truncated to limit.
	ListSessions(ctx context.Context, ownerID string, limit int) ([]domain.Session, error)

	// AppendMessage persists one message and, atomically with the insert,
	// bumps the owning session's UpdatedAt. Returns ErrSessionNotFound if the
	// session does not exist.
	AppendMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*domain.Message, error)

	// Messages returns a session's messages in ascending ID (chronological)
	// order. When more than limit exist, the EARLIEST limit messages are kept:
	// history reconstruction depends on a contiguous prefix of the transcript.
	Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// UpdateTitle renames a session and returns the number of rows affected.
	// Zero rows (absent session) is not an error.
	UpdateTitle(ctx context.Context, sessionID, title string) (int64, error)

	// DeleteSession removes the session's messages then the session itself,
	// atomically. Deleting an absent session is not an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// SearchMessages returns messages in ownerID's sessions whose content
	// contains query (case-insensitive), newest first, truncated to limit.
	SearchMessages(ctx context.Context, query, ownerID string, limit int) ([]domain.Message, error)
}

// Default truncation limits, matching the original service behavior.
const (
	DefaultSessionLimit = 20
	DefaultMessageLimit = 100
	DefaultSearchLimit  = 20
)
