// Package tools provides the tool gateway client: a stateless JSON-RPC 2.0
// adapter that forwards single tool invocations to a remote endpoint.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ravanos/chatd/internal/logging"
)

// InvocationError is a response-level error from the tool gateway. The remote
// error payload is carried verbatim, without reinterpretation.
type InvocationError struct {
	Tool    string
	Payload json.RawMessage
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s: RPC error: %s", e.Tool, string(e.Payload))
}

// Client invokes tools over HTTP POST against a single fixed endpoint using
// the JSON-RPC 2.0 envelope {jsonrpc, id, method: "tools/call", params}.
type Client struct {
	endpoint string
	http     *http.Client
	log      *logging.Logger
	seq      atomic.Int64
}

// NewClient creates a tool gateway client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration, log *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log.Sub("tools"),
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Invoke forwards one tool call and returns the raw result payload. A
// response-level error field becomes an *InvocationError; transport failures
// are returned as-is.
func (c *Client) Invoke(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error) {
	if len(arguments) == 0 {
		arguments = json.RawMessage(`{}`)
	}

	// One correlation id per call; the generic request/response numbering of
	// the envelope is how results are matched back to requests.
	id := c.seq.Add(1)
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "tools/call",
		Params:  rpcParams{Name: name, Arguments: arguments},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("tool", name).Int64("id", id).Msg("invoking tool")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tool response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tool gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var rpc rpcResponse
	if err := json.Unmarshal(body, &rpc); err != nil {
		return nil, fmt.Errorf("parsing tool response: %w", err)
	}
	if rpc.ID != id {
		return nil, fmt.Errorf("tool gateway response id %d does not match request id %d", rpc.ID, id)
	}
	if len(rpc.Error) > 0 && string(rpc.Error) != "null" {
		return nil, &InvocationError{Tool: name, Payload: rpc.Error}
	}
	return rpc.Result, nil
}
