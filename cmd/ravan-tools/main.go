// Command ravan-tools is a standalone tool gateway for development. It
// serves the RavanOS tool surface over JSON-RPC 2.0 with canned business
// data, so the chat backend can run without a live RavanOS deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

var logger *log.Logger

// doctypeFields maps each known DocType to its field list.
var doctypeFields = map[string][]string{
	"Customer":    {"name", "customer_name", "customer_type", "customer_group", "territory", "email_id", "mobile_no"},
	"Item":        {"name", "item_name", "item_code", "item_group", "stock_uom", "standard_rate", "is_stock_item"},
	"Sales Order": {"name", "customer", "transaction_date", "delivery_date", "grand_total", "status", "currency"},
	"Supplier":    {"name", "supplier_name", "supplier_group", "supplier_type", "country"},
	"Sales Invoice": {"name", "customer", "posting_date", "due_date", "grand_total", "outstanding_amount", "status"},
}

// documents holds a small canned dataset per DocType.
var documents = map[string][]map[string]any{
	"Customer": {
		{"name": "CUST-0001", "customer_name": "Acme Industries", "customer_type": "Company", "customer_group": "Commercial", "territory": "United States", "email_id": "ops@acme.example", "mobile_no": "+1-555-0101"},
		{"name": "CUST-0002", "customer_name": "Globex Corporation", "customer_type": "Company", "customer_group": "Commercial", "territory": "Germany", "email_id": "buying@globex.example", "mobile_no": "+49-555-0102"},
		{"name": "CUST-0003", "customer_name": "Dana Whitcombe", "customer_type": "Individual", "customer_group": "Individual", "territory": "United Kingdom", "email_id": "dana@example.net", "mobile_no": "+44-555-0103"},
	},
	"Item": {
		{"name": "ITEM-0001", "item_name": "Steel Bracket", "item_code": "STL-BRKT-01", "item_group": "Raw Material", "stock_uom": "Nos", "standard_rate": 12.5, "is_stock_item": 1},
		{"name": "ITEM-0002", "item_name": "Hex Bolt M8", "item_code": "HEX-M8", "item_group": "Fasteners", "stock_uom": "Box", "standard_rate": 4.75, "is_stock_item": 1},
		{"name": "ITEM-0003", "item_name": "Assembly Service", "item_code": "SVC-ASM", "item_group": "Services", "stock_uom": "Hour", "standard_rate": 85.0, "is_stock_item": 0},
	},
	"Sales Order": {
		{"name": "SO-0001", "customer": "CUST-0001", "transaction_date": "2025-06-02", "delivery_date": "2025-06-16", "grand_total": 4250.0, "status": "To Deliver", "currency": "USD"},
		{"name": "SO-0002", "customer": "CUST-0002", "transaction_date": "2025-06-11", "delivery_date": "2025-06-25", "grand_total": 1890.5, "status": "Completed", "currency": "EUR"},
	},
	"Supplier": {
		{"name": "SUPP-0001", "supplier_name": "Ferrum Metals", "supplier_group": "Raw Material", "supplier_type": "Company", "country": "Sweden"},
	},
	"Sales Invoice": {
		{"name": "SINV-0001", "customer": "CUST-0001", "posting_date": "2025-06-20", "due_date": "2025-07-20", "grand_total": 4250.0, "outstanding_amount": 0.0, "status": "Paid"},
		{"name": "SINV-0002", "customer": "CUST-0002", "posting_date": "2025-06-28", "due_date": "2025-07-28", "grand_total": 1890.5, "outstanding_amount": 1890.5, "status": "Unpaid"},
	},
}

func main() {
	var (
		port = flag.Int("port", 8080, "listen port")
		path = flag.String("path", "/mcp", "JSON-RPC endpoint path")
	)
	flag.Parse()

	logger = log.New(os.Stderr, "[ravan-tools] ", log.LstdFlags)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+*path, handleRPC)

	addr := fmt.Sprintf(":%d", *port)
	logger.Printf("tool gateway listening on %s%s", addr, *path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

func handleRPC(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "Parse error", err.Error())
		return
	}

	logger.Printf("method=%s id=%v", req.Method, req.ID)

	switch req.Method {
	case "tools/call":
		handleCallTool(w, req)
	default:
		writeError(w, req.ID, -32601, "Method not found", fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func handleCallTool(w http.ResponseWriter, req JSONRPCRequest) {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, -32602, "Invalid params", err.Error())
		return
	}

	logger.Printf("tool=%s args=%v", params.Name, params.Arguments)

	switch params.Name {
	case "get_doctypes":
		getDoctypes(w, req.ID)
	case "get_doctype_fields":
		getDoctypeFields(w, req.ID, params.Arguments)
	case "get_documents":
		getDocuments(w, req.ID, params.Arguments)
	default:
		writeError(w, req.ID, -32602, "Unknown tool", fmt.Sprintf("Tool not found: %s", params.Name))
	}
}

func getDoctypes(w http.ResponseWriter, id any) {
	names := make([]string, 0, len(doctypeFields))
	for name := range doctypeFields {
		names = append(names, name)
	}
	writeResponse(w, id, map[string]any{"doctypes": names})
}

func getDoctypeFields(w http.ResponseWriter, id any, args map[string]any) {
	doctype, ok := args["doctype"].(string)
	if !ok || doctype == "" {
		writeError(w, id, -32602, "Invalid arguments", "doctype is required")
		return
	}
	fields, ok := doctypeFields[doctype]
	if !ok {
		writeError(w, id, -32602, "Unknown doctype", fmt.Sprintf("DocType not found: %s", doctype))
		return
	}
	writeResponse(w, id, map[string]any{"doctype": doctype, "fields": fields})
}

func getDocuments(w http.ResponseWriter, id any, args map[string]any) {
	doctype, ok := args["doctype"].(string)
	if !ok || doctype == "" {
		writeError(w, id, -32602, "Invalid arguments", "doctype is required")
		return
	}
	docs, ok := documents[doctype]
	if !ok {
		writeError(w, id, -32602, "Unknown doctype", fmt.Sprintf("DocType not found: %s", doctype))
		return
	}

	filters, _ := args["filters"].(map[string]any)
	var fields []string
	if raw, ok := args["fields"].([]any); ok {
		for _, f := range raw {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
	}
	limit := len(docs)
	if n, ok := args["limit"].(float64); ok && int(n) > 0 {
		limit = int(n)
	}

	var out []map[string]any
	for _, doc := range docs {
		if !matchesFilters(doc, filters) {
			continue
		}
		out = append(out, projectFields(doc, fields))
		if len(out) >= limit {
			break
		}
	}
	if out == nil {
		out = []map[string]any{}
	}
	writeResponse(w, id, map[string]any{"doctype": doctype, "documents": out})
}

// matchesFilters does case-insensitive equality per filter field.
func matchesFilters(doc, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if !strings.EqualFold(fmt.Sprint(got), fmt.Sprint(want)) {
			return false
		}
	}
	return true
}

func projectFields(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return doc
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func writeResponse(w http.ResponseWriter, id, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id any, code int, message string, data any) {
	logger.Printf("error response: code=%d message=%s", code, message)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}
