// Package domain holds the core chat entities shared across the daemon.
package domain

import "time"

// Defaults applied when the caller does not identify itself or name the chat.
const (
	DefaultOwnerID = "anonymous"
	DefaultTitle   = "New Chat"
)

// Session is a persistent, user-scoped conversation container.
// ID is assigned at creation and never reused; UpdatedAt is bumped on every
// message append so listing by recency reflects conversational activity.
type Session struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"userId"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Derived fields, populated by ListSessions only.
	MessageCount    int        `json:"messageCount,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
}
