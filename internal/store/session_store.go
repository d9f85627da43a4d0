package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ravanos/chatd/internal/domain"
)

// SQLiteSessionStore implements SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db *DB
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

var _ SessionStore = (*SQLiteSessionStore)(nil)

func (s *SQLiteSessionStore) CreateSession(ctx context.Context, ownerID, title string) (*domain.Session, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if title == "" {
		title = domain.DefaultTitle
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, owner_id, title, created_at, updated_at, metadata)
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		sess.ID, ownerID, title, now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return nil, storageErr("create session", err)
	}

	s.db.log.Debug().Str("session", sess.ID).Str("owner", ownerID).Msg("session created")
	return sess, nil
}

func (s *SQLiteSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var (
		sess                 domain.Session
		createdAt, updatedAt string
		metadata             sql.NullString
	)
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT id, owner_id, title, created_at, updated_at, metadata
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.OwnerID, &sess.Title, &createdAt, &updatedAt, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}

	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	sess.Metadata = parseMetadata(metadata)
	return &sess, nil
}

func (s *SQLiteSessionStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if limit <= 0 {
		limit = DefaultSessionLimit
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT s.id, s.owner_id, s.title, s.created_at, s.updated_at, s.metadata,
		        COUNT(m.id), MAX(m.timestamp)
		 FROM sessions s
		 LEFT JOIN messages m ON s.id = m.session_id
		 WHERE s.owner_id = ?
		 GROUP BY s.id
		 ORDER BY s.updated_at DESC
		 LIMIT ?`, ownerID, limit,
	)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			sess                 domain.Session
			createdAt, updatedAt string
			metadata, lastMsg    sql.NullString
		)
		if err := rows.Scan(&sess.ID, &sess.OwnerID, &sess.Title, &createdAt, &updatedAt,
			&metadata, &sess.MessageCount, &lastMsg); err != nil {
			return nil, storageErr("scan session", err)
		}
		sess.CreatedAt = parseTime(createdAt)
		sess.UpdatedAt = parseTime(updatedAt)
		sess.Metadata = parseMetadata(metadata)
		if lastMsg.Valid {
			t := parseTime(lastMsg.String)
			sess.LastMessageTime = &t
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return sessions, nil
}

// AppendMessage inserts the message and bumps the session's updated_at in a
// single transaction. The bump is what makes ListSessions order by
// conversational recency rather than creation time.
func (s *SQLiteSessionStore) AppendMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*domain.Message, error) {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin append", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageErr("check session", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, now.Format(timeLayout), marshalMetadata(metadata),
	)
	if err != nil {
		return nil, storageErr("insert message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("message id", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		now.Format(timeLayout), sessionID,
	); err != nil {
		return nil, storageErr("bump session", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit append", err)
	}

	return &domain.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	}, nil
}

// Messages returns the earliest `limit` messages in chronological order.
// The truncation direction is deliberate: the runner reconstructs history
// from a contiguous prefix of the transcript.
func (s *SQLiteSessionStore) Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, session_id, role, content, timestamp, metadata
		 FROM messages WHERE session_id = ?
		 ORDER BY id ASC
		 LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, storageErr("get messages", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *SQLiteSessionStore) UpdateTitle(ctx context.Context, sessionID, title string) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC().Format(timeLayout), sessionID,
	)
	if err != nil {
		return 0, storageErr("update title", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("update title", err)
	}
	return affected, nil
}

// DeleteSession removes all messages for the session then the session row,
// in one transaction. Deleting an absent session is a no-op.
func (s *SQLiteSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return storageErr("delete messages", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return storageErr("delete session", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit delete", err)
	}

	s.db.log.Debug().Str("session", sessionID).Msg("session deleted")
	return nil
}

func (s *SQLiteSessionStore) SearchMessages(ctx context.Context, query, ownerID string, limit int) ([]domain.Message, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	// SQLite LIKE is case-insensitive for ASCII.
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT m.id, m.session_id, m.role, m.content, m.timestamp, m.metadata
		 FROM messages m
		 JOIN sessions s ON m.session_id = s.id
		 WHERE s.owner_id = ? AND m.content LIKE ?
		 ORDER BY m.id DESC
		 LIMIT ?`, ownerID, "%"+query+"%", limit,
	)
	if err != nil {
		return nil, storageErr("search messages", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var msgs []domain.Message
	for rows.Next() {
		var (
			msg      domain.Message
			ts       string
			metadata sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &ts, &metadata); err != nil {
			return nil, storageErr("scan message", err)
		}
		msg.Timestamp = parseTime(ts)
		msg.Metadata = parseMetadata(metadata)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read messages", err)
	}
	return msgs, nil
}

// marshalMetadata serializes metadata to JSON text, NULL when empty.
func marshalMetadata(metadata map[string]any) sql.NullString {
	if len(metadata) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func parseMetadata(ns sql.NullString) map[string]any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil
	}
	return m
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
