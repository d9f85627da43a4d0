package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ravanos/chatd/internal/domain"
)

// MemorySessionStore is an in-memory SessionStore implementation with the
// same semantics as the SQLite store. Used for tests and `store: memory`
// deployments where durability is not required.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	messages map[string][]domain.Message // session id → chronological messages
	touched  map[string]int64            // session id → recency sequence
	nextID   int64
	seq      int64
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
		messages: make(map[string][]domain.Message),
		touched:  make(map[string]int64),
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (s *MemorySessionStore) CreateSession(ctx context.Context, ownerID, title string) (*domain.Session, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if title == "" {
		title = domain.DefaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	s.seq++
	s.touched[sess.ID] = s.seq

	copied := *sess
	return &copied, nil
}

func (s *MemorySessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *MemorySessionStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if limit <= 0 {
		limit = DefaultSessionLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []domain.Session
	for id, sess := range s.sessions {
		if sess.OwnerID != ownerID {
			continue
		}
		copied := *sess
		msgs := s.messages[id]
		copied.MessageCount = len(msgs)
		if len(msgs) > 0 {
			t := msgs[len(msgs)-1].Timestamp
			copied.LastMessageTime = &t
		}
		sessions = append(sessions, copied)
	}

	// Most recently active first; the touch sequence breaks timestamp ties.
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return s.touched[sessions[i].ID] > s.touched[sessions[j].ID]
	})

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (s *MemorySessionStore) AppendMessage(ctx context.Context, sessionID, role, content string, metadata map[string]any) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.nextID++
	now := time.Now().UTC()
	msg := domain.Message{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	sess.UpdatedAt = now
	s.seq++
	s.touched[sessionID] = s.seq

	copied := msg
	return &copied, nil
}

func (s *MemorySessionStore) Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[:limit] // earliest prefix, matching the SQLite store
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemorySessionStore) UpdateTitle(ctx context.Context, sessionID, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, nil
	}
	sess.Title = title
	sess.UpdatedAt = time.Now().UTC()
	s.seq++
	s.touched[sessionID] = s.seq
	return 1, nil
}

func (s *MemorySessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	delete(s.touched, sessionID)
	return nil
}

func (s *MemorySessionStore) SearchMessages(ctx context.Context, query, ownerID string, limit int) ([]domain.Message, error) {
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var matches []domain.Message
	for id, sess := range s.sessions {
		if sess.OwnerID != ownerID {
			continue
		}
		for _, msg := range s.messages[id] {
			if strings.Contains(strings.ToLower(msg.Content), needle) {
				matches = append(matches, msg)
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
