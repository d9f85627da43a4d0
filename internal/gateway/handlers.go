package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ravanos/chatd/internal/agent"
	"github.com/ravanos/chatd/internal/domain"
	"github.com/ravanos/chatd/internal/store"
	"github.com/ravanos/chatd/internal/version"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports liveness plus build info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

type chatRequest struct {
	Messages  []agent.Turn `json:"messages"`
	SessionID string       `json:"sessionId,omitempty"`
	UserID    string       `json:"userId,omitempty"`
}

// handleChat runs one conversation cycle and returns the final answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, agent.Request{
		SessionID: req.SessionID,
		OwnerID:   req.UserID,
		Turns:     req.Messages,
	})
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.log.Error().Err(err).Msg("chat request failed")
		// Internal detail stays out of the response body.
		writeError(w, http.StatusInternalServerError, "An error occurred during the conversation.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":  result.Response,
		"sessionId": result.SessionID,
	})
}

// handleListSessions returns the caller's sessions, most recent first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = domain.DefaultOwnerID
	}
	limit := queryInt(r, "limit", store.DefaultSessionLimit)

	sessions, err := s.store.ListSessions(r.Context(), userID, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("error fetching sessions")
		writeError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

type createSessionRequest struct {
	UserID string `json:"userId,omitempty"`
	Title  string `json:"title,omitempty"`
}

// handleCreateSession creates an empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		// An empty body is accepted; both fields default.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.UserID == "" {
		req.UserID = domain.DefaultOwnerID
	}
	if req.Title == "" {
		req.Title = domain.DefaultTitle
	}

	session, err := s.store.CreateSession(r.Context(), req.UserID, req.Title)
	if err != nil {
		s.log.Error().Err(err).Msg("error creating session")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// handleSessionMessages returns a session's transcript in append order.
func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	limit := queryInt(r, "limit", store.DefaultMessageLimit)

	if _, err := s.store.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.log.Error().Err(err).Msg("error fetching messages")
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	messages, err := s.store.Messages(r.Context(), sessionID, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("error fetching messages")
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// handleDeleteSession removes a session and its messages. Deleting an
// unknown session still succeeds.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	if err := s.store.DeleteSession(r.Context(), sessionID); err != nil {
		s.log.Error().Err(err).Msg("error deleting session")
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleSearch finds messages by content substring across the caller's
// sessions.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = domain.DefaultOwnerID
	}
	limit := queryInt(r, "limit", store.DefaultSearchLimit)

	results, err := s.store.SearchMessages(r.Context(), query, userID, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("error searching messages")
		writeError(w, http.StatusInternalServerError, "Failed to search messages")
		return
	}
	if results == nil {
		results = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
