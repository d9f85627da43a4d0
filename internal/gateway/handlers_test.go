package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravanos/chatd/internal/agent"
	"github.com/ravanos/chatd/internal/config"
	"github.com/ravanos/chatd/internal/llm"
	"github.com/ravanos/chatd/internal/logging"
	"github.com/ravanos/chatd/internal/store"
	"github.com/ravanos/chatd/internal/tools"
)

type noopInvoker struct{}

func (noopInvoker) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func testServer(t *testing.T, client llm.Client) (*Server, *store.MemorySessionStore) {
	t.Helper()
	log := logging.New(nil, "silent", "json")
	st := store.NewMemorySessionStore()
	runner := agent.NewRunner(client, st, noopInvoker{}, tools.Catalog(), 100, log)
	return New(config.GatewayConfig{Port: 0}, runner, st, log), st
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	handler := withMiddleware(mux, s.log, nil)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestChatEndpoint(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, conv []llm.Message, defs []llm.ToolDefinition) (*llm.Completion, error) {
			return &llm.Completion{Content: "Hello from the assistant"}, nil
		},
	}
	s, st := testServer(t, mock)

	rec := doRequest(s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}],"userId":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Hello from the assistant", body["response"])
	sessionID, _ := body["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	msgs, err := st.Messages(context.Background(), sessionID, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestChatRequiresMessages(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodPost, "/api/chat", `{"userId":"alice"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Messages array is required", decode(t, rec)["error"])
}

func TestChatUnknownSession(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}],"sessionId":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode(t, rec)["error"])
}

func TestChatModelFailureIsGeneric(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, conv []llm.Message, defs []llm.ToolDefinition) (*llm.Completion, error) {
			return nil, llm.ErrGatewayUnavailable
		},
	}
	s, _ := testServer(t, mock)
	rec := doRequest(s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An error occurred during the conversation.", decode(t, rec)["error"])
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})

	// Create
	rec := doRequest(s, http.MethodPost, "/api/sessions", `{"userId":"alice","title":"Quarterly Review"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode(t, rec)["session"].(map[string]any)
	sessionID := created["id"].(string)
	assert.Equal(t, "alice", created["userId"])
	assert.Equal(t, "Quarterly Review", created["title"])

	// List
	rec = doRequest(s, http.MethodGet, "/api/sessions?userId=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decode(t, rec)["sessions"].([]any)
	require.Len(t, sessions, 1)

	// Messages of an empty session
	rec = doRequest(s, http.MethodGet, "/api/sessions/"+sessionID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["messages"])

	// Delete
	rec = doRequest(s, http.MethodDelete, "/api/sessions/"+sessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	// Delete again is still a success
	rec = doRequest(s, http.MethodDelete, "/api/sessions/"+sessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Listing is empty afterwards
	rec = doRequest(s, http.MethodGet, "/api/sessions?userId=alice", "")
	assert.Empty(t, decode(t, rec)["sessions"])
}

func TestCreateSessionDefaults(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodPost, "/api/sessions", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode(t, rec)["session"].(map[string]any)
	assert.Equal(t, "anonymous", created["userId"])
	assert.Equal(t, "New Chat", created["title"])
}

func TestSessionMessagesNotFound(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodGet, "/api/sessions/nope/messages", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode(t, rec)["error"])
}

func TestSearchEndpoint(t *testing.T) {
	s, st := testServer(t, &llm.MockClient{})
	sess, err := st.CreateSession(context.Background(), "alice", "Chat")
	require.NoError(t, err)
	_, err = st.AppendMessage(context.Background(), sess.ID, "user", "show me the invoices", nil)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodGet, "/api/search?query=invoice&userId=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode(t, rec)["results"].([]any)
	require.Len(t, results, 1)

	rec = doRequest(s, http.MethodGet, "/api/search?userId=alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodGet, "/api/bogus", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	handler := withMiddleware(mux, s.log, []string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestResolveBindAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3001", resolveBindAddr(config.GatewayConfig{Bind: "loopback", Port: 3001}))
	assert.Equal(t, "0.0.0.0:3001", resolveBindAddr(config.GatewayConfig{Bind: "lan", Port: 3001}))
	assert.Equal(t, "10.0.0.5:9000", resolveBindAddr(config.GatewayConfig{Bind: "custom", CustomBindHost: "10.0.0.5", Port: 9000}))
	assert.Equal(t, "0.0.0.0:3001", resolveBindAddr(config.GatewayConfig{Port: 3001}))
}
