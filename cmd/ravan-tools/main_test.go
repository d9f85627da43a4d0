package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger = log.New(io.Discard, "", 0)
}

func callRPC(t *testing.T, body string) JSONRPCResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handleRPC(rec, req)

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetDoctypes(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_doctypes","arguments":{}}}`)
	require.Nil(t, resp.Error)
	assert.EqualValues(t, 1, resp.ID)

	result := resp.Result.(map[string]any)
	doctypes := result["doctypes"].([]any)
	assert.Len(t, doctypes, len(doctypeFields))
}

func TestGetDoctypeFields(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_doctype_fields","arguments":{"doctype":"Customer"}}}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	assert.Equal(t, "Customer", result["doctype"])
	assert.NotEmpty(t, result["fields"])
}

func TestGetDoctypeFieldsUnknown(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_doctype_fields","arguments":{"doctype":"Nope"}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestGetDocumentsFiltersAndProjection(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_documents","arguments":{"doctype":"Customer","fields":["customer_name"],"filters":{"territory":"Germany"}}}}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	docs := result["documents"].([]any)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "Globex Corporation", doc["customer_name"])
	assert.NotContains(t, doc, "territory")
}

func TestGetDocumentsLimit(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"get_documents","arguments":{"doctype":"Customer","limit":1}}}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	assert.Len(t, result["documents"].([]any), 1)
}

func TestUnknownTool(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"do_magic","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	resp := callRPC(t, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestParseError(t *testing.T) {
	resp := callRPC(t, `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32700, resp.Error.Code)
}
