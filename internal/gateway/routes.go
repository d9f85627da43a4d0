package gateway

import "net/http"

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}/messages", s.handleSessionMessages)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/search", s.handleSearch)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
