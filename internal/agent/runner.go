// Package agent implements the conversation orchestration loop: it drives
// the request/response cycle between the model gateway and the tool gateway
// until a final answer is produced, then commits the transcript delta.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ravanos/chatd/internal/domain"
	"github.com/ravanos/chatd/internal/llm"
	"github.com/ravanos/chatd/internal/logging"
	"github.com/ravanos/chatd/internal/store"
	"github.com/ravanos/chatd/internal/tools"
)

// maxToolRounds bounds the tool loop so a model that never stops requesting
// tools cannot recurse forever.
const maxToolRounds = 5

// ToolInvoker forwards one tool invocation to the tool gateway.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error)
}

// Turn is one caller-submitted conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one inbound conversation request.
type Request struct {
	SessionID string // empty: a new session is created
	OwnerID   string
	Turns     []Turn
}

// Result is the outcome of a completed conversation cycle.
type Result struct {
	Response  string        `json:"response"`
	SessionID string        `json:"sessionId"`
	Model     string        `json:"model,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Runner orchestrates conversations. It holds no per-request state; all
// memory lives in the session store.
type Runner struct {
	client       llm.Client
	store        store.SessionStore
	tools        ToolInvoker
	catalog      []llm.ToolDefinition
	historyLimit int
	log          *logging.Logger
}

// NewRunner creates a conversation runner.
func NewRunner(client llm.Client, st store.SessionStore, invoker ToolInvoker, catalog []llm.ToolDefinition, historyLimit int, log *logging.Logger) *Runner {
	if historyLimit <= 0 {
		historyLimit = store.DefaultMessageLimit
	}
	return &Runner{
		client:       client,
		store:        st,
		tools:        invoker,
		catalog:      catalog,
		historyLimit: historyLimit,
		log:          log.Sub("agent"),
	}
}

// pending is one not-yet-persisted transcript message.
type pending struct {
	role     string
	content  string
	metadata map[string]any
}

// Run processes one conversation request to completion.
//
// The loop alternates between the model gateway and the tool gateway. No
// store writes happen mid-loop; the transcript delta is accumulated in memory
// and committed only after a final answer is reached: caller turns first,
// then every loop message, then the terminal assistant answer. If the model
// gateway fails, nothing is persisted.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = domain.DefaultOwnerID
	}
	if len(req.Turns) == 0 {
		return nil, errors.New("no conversation turns submitted")
	}

	sessionID := req.SessionID
	newSession := sessionID == ""
	if newSession {
		sess, err := r.store.CreateSession(ctx, ownerID, domain.DefaultTitle)
		if err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		sessionID = sess.ID
	} else {
		if _, err := r.store.GetSession(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	history, err := r.store.Messages(ctx, sessionID, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	conv := make([]llm.Message, 0, len(history)+len(req.Turns)+1)
	conv = append(conv, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt()})
	for _, m := range history {
		conv = append(conv, historyMessage(m))
	}

	var delta []pending
	for _, t := range req.Turns {
		role := t.Role
		if role == "" {
			role = domain.RoleUser
		}
		conv = append(conv, llm.Message{Role: role, Content: t.Content})
		delta = append(delta, pending{role: role, content: t.Content})
	}

	r.log.Info().
		Str("sessionId", sessionID).
		Str("owner", ownerID).
		Int("historyLen", len(history)).
		Msg("processing conversation")

	var (
		final string
		model string
		done  bool
	)
	for round := 0; round < maxToolRounds; round++ {
		comp, err := r.client.Complete(ctx, conv, r.catalog)
		if err != nil {
			return nil, fmt.Errorf("model completion: %w", err)
		}
		model = comp.Model

		if len(comp.ToolCalls) == 0 {
			final = comp.Content
			delta = append(delta, pending{role: domain.RoleAssistant, content: final})
			done = true
			break
		}

		r.log.Info().Int("toolCalls", len(comp.ToolCalls)).Int("round", round).Msg("executing tool calls")

		// Record the assistant turn that requested the tools so the model
		// sees its own request when the results come back.
		conv = append(conv, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   comp.Content,
			ToolCalls: comp.ToolCalls,
		})
		delta = append(delta, pending{
			role:     domain.RoleAssistant,
			content:  comp.Content,
			metadata: map[string]any{"toolCalls": comp.ToolCalls},
		})

		for _, out := range r.dispatch(ctx, comp.ToolCalls) {
			content := out.content()
			conv = append(conv, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: out.call.ID,
				Name:       out.call.Name,
			})
			delta = append(delta, pending{
				role:    domain.RoleTool,
				content: content,
				metadata: map[string]any{
					"toolCallId": out.call.ID,
					"toolName":   out.call.Name,
				},
			})
		}
	}

	if !done {
		return nil, fmt.Errorf("no final answer after %d tool rounds", maxToolRounds)
	}

	// Commit the delta in order. A failure partway leaves earlier appends in
	// place; there is no rollback across messages.
	for _, p := range delta {
		if _, err := r.store.AppendMessage(ctx, sessionID, p.role, p.content, p.metadata); err != nil {
			return nil, fmt.Errorf("persisting transcript: %w", err)
		}
	}

	if newSession {
		r.assignTitle(ctx, sessionID, req.Turns)
	}

	r.log.Info().
		Str("sessionId", sessionID).
		Str("model", model).
		Dur("duration", time.Since(start)).
		Msg("response generated")

	return &Result{
		Response:  final,
		SessionID: sessionID,
		Model:     model,
		Duration:  time.Since(start),
	}, nil
}

// toolOutcome pairs a tool call with its gateway result or failure.
type toolOutcome struct {
	call   llm.ToolCall
	result json.RawMessage
	err    error
}

// toolFailure is the error-shaped payload injected into the transcript when
// a tool invocation fails. The loop never aborts on tool failure; the model
// gets to react to this instead.
type toolFailure struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// content serializes the outcome for the transcript.
func (o toolOutcome) content() string {
	if o.err == nil {
		if len(o.result) == 0 {
			return "null"
		}
		return string(o.result)
	}

	var details any
	var invErr *tools.InvocationError
	if errors.As(o.err, &invErr) {
		details = json.RawMessage(invErr.Payload)
	} else {
		details = o.err.Error()
	}
	data, err := json.Marshal(toolFailure{Error: "Tool call failed", Details: details})
	if err != nil {
		return `{"error":"Tool call failed"}`
	}
	return string(data)
}

// dispatch invokes the round's tool calls concurrently. Outcomes are indexed
// by request position so the transcript keeps the model's ordering, not
// completion order.
func (r *Runner) dispatch(ctx context.Context, calls []llm.ToolCall) []toolOutcome {
	outcomes := make([]toolOutcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			result, err := r.tools.Invoke(ctx, call.Name, json.RawMessage(call.Arguments))
			if err != nil {
				r.log.Warn().Err(err).Str("tool", call.Name).Msg("tool invocation failed")
			}
			outcomes[i] = toolOutcome{call: call, result: result, err: err}
		}(i, call)
	}
	wg.Wait()
	return outcomes
}

// assignTitle derives a session title from the caller's last submitted turn.
// Happens exactly once per session, and only for sessions this request
// created. Failure leaves the default title in place.
func (r *Runner) assignTitle(ctx context.Context, sessionID string, turns []Turn) {
	text := turns[len(turns)-1].Content
	title, err := r.client.Title(ctx, text)
	if err != nil || title == "" {
		r.log.Warn().Err(err).Str("sessionId", sessionID).Msg("title generation failed")
		return
	}
	if _, err := r.store.UpdateTitle(ctx, sessionID, title); err != nil {
		r.log.Warn().Err(err).Str("sessionId", sessionID).Msg("title update failed")
	}
}

// historyMessage rebuilds the gateway-facing turn from a stored message,
// restoring tool-call correlation data from metadata.
func historyMessage(m domain.Message) llm.Message {
	out := llm.Message{Role: m.Role, Content: m.Content}
	switch m.Role {
	case domain.RoleTool:
		if id, ok := m.Metadata["toolCallId"].(string); ok {
			out.ToolCallID = id
		}
		if name, ok := m.Metadata["toolName"].(string); ok {
			out.Name = name
		}
	case domain.RoleAssistant:
		if raw, ok := m.Metadata["toolCalls"]; ok {
			if data, err := json.Marshal(raw); err == nil {
				_ = json.Unmarshal(data, &out.ToolCalls)
			}
		}
	}
	return out
}
