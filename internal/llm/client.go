// Package llm defines the model gateway client: a stateless adapter that
// submits a conversation plus a tool catalog and returns either a final
// answer or a set of requested tool invocations.
package llm

import (
	"context"
	"errors"
)

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrGatewayUnavailable indicates the model gateway was unreachable or
// returned a malformed response. Content is never silently substituted.
var ErrGatewayUnavailable = errors.New("model gateway unavailable")

// Message is a single turn in a conversation as submitted to the gateway.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant turns that requested tool invocations.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ToolCallID and Name are set on tool-result turns; ToolCallID is the
	// correlation token linking the result back to its request.
	ToolCallID string `json:"toolCallId,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolCall is a model request to invoke one named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded argument object
}

// ToolDefinition describes a tool the model may invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Completion is the gateway's answer: exactly one of final Content or a
// non-empty ToolCalls set.
type Completion struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Model     string     `json:"model,omitempty"`
}

// Client is the model gateway contract.
type Client interface {
	// Complete submits the full conversation and tool catalog and returns
	// the model's next move.
	Complete(ctx context.Context, conv []Message, tools []ToolDefinition) (*Completion, error)

	// Title derives a short descriptive session title from the user's first
	// message via a secondary model call.
	Title(ctx context.Context, text string) (string, error)
}
