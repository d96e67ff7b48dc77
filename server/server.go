// Package server exposes the chatbot over HTTP: a chat endpoint, a
// feedback endpoint, and a static frontend with single-page-app routing.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/menudata/menubot/rag"
)

// Responder answers chat queries. Satisfied by rag.Engine.
type Responder interface {
	Answer(ctx context.Context, query string, history []rag.ChatMessage) rag.Result
}

// FeedbackRecorder persists user verdicts. Satisfied by rag.FeedbackStore.
type FeedbackRecorder interface {
	Record(query, response, verdict string) error
}

// Server routes HTTP requests to the chat engine and the feedback store.
type Server struct {
	responder   Responder
	feedback    FeedbackRecorder
	frontendDir string
	logger      rag.Logger
}

// New creates a Server. frontendDir may point at a missing directory, in
// which case static requests return 404.
func New(responder Responder, feedback FeedbackRecorder, frontendDir string) *Server {
	return &Server{
		responder:   responder,
		feedback:    feedback,
		frontendDir: frontendDir,
		logger:      rag.GlobalLogger,
	}
}

// Handler returns the server's HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/feedback", s.handleFeedback)
	mux.HandleFunc("/", s.handleStatic)
	return corsMiddleware(mux)
}

type chatRequest struct {
	Message string            `json:"message"`
	History []rag.ChatMessage `json:"history"`
}

type chatResponse struct {
	Response string            `json:"response"`
	Sources  []rag.Source      `json:"sources"`
	History  []rag.ChatMessage `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Error("failed to decode chat request", "error", err)
		writeDetail(w, http.StatusInternalServerError, "invalid request body: "+err.Error())
		return
	}

	result := s.responder.Answer(r.Context(), req.Message, req.History)

	writeJSON(w, http.StatusOK, chatResponse{
		Response: result.Response,
		Sources:  result.Sources,
		History:  result.History,
	})
}

// feedbackRequest carries the verdict under "type"; the stored record uses
// "feedback" for the same value.
type feedbackRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Type     string `json:"type"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusInternalServerError, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" || req.Response == "" || req.Type == "" {
		writeDetail(w, http.StatusInternalServerError, "query, response, and type are required")
		return
	}

	if err := s.feedback.Record(req.Query, req.Response, req.Type); err != nil {
		s.logger.Error("failed to record feedback", "error", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleStatic serves the frontend build. Unknown paths fall back to
// index.html so client-side routing works.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.frontendDir, filepath.Clean("/"+r.URL.Path))

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(s.frontendDir, "index.html"))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail mirrors the error shape the frontend expects.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
