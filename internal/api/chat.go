package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/apotek/apotek/internal/agent"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/session"
)

type chatHandler struct {
	agent    *agent.Agent
	sessions session.Store
	logger   log.Logger
}

func newChatHandler(a *agent.Agent, sessions session.Store, logger log.Logger) *chatHandler {
	return &chatHandler{agent: a, sessions: sessions, logger: logger}
}

func (h *chatHandler) register(mux *http.ServeMux) {
	if h.agent == nil || h.sessions == nil {
		h.logger.Warn("agent is nil, chat endpoints not registered")
		return
	}
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

// ChatRequest is one user turn. An empty session_id starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the completed turn of the non-streaming endpoint.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Language  string `json:"language"`
	ToolCalls int    `json:"tool_calls"`
}

// resolveSession parses or creates the session for a turn.
func (h *chatHandler) resolveSession(r *http.Request, raw string) (uuid.UUID, error) {
	if raw == "" {
		sess, err := h.sessions.Create(r.Context())
		if err != nil {
			return uuid.Nil, fmt.Errorf("creating session: %w", err)
		}
		return sess.ID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session_id: %w", err)
	}
	return id, nil
}

func (h *chatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}

	id, err := h.resolveSession(r, req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", err.Error())
		return
	}

	resp, err := h.agent.Execute(r.Context(), id, req.Message)
	if err != nil {
		h.writeTurnError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: id.String(),
		Response:  resp.FinalText,
		Language:  string(resp.Language),
		ToolCalls: resp.ToolCalls,
	})
}

func (h *chatHandler) writeTurnError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "session not found")
	case errors.Is(err, agent.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "empty_message", "message is empty")
	default:
		h.logger.Error("turn failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "turn_failed", "failed to process message")
	}
}

// handleStream runs one turn and streams its events as SSE.
//
// Event types:
//   - tool_call_started: {"tool": "...", "args": {...}}
//   - tool_call_result:  {"tool": "...", "result": {...}}
//   - answer_token:      {"text": "..."}
//   - turn_complete:     {"session_id": "...", "response": "...", "language": "..."}
//   - error:             {"code": "...", "message": "..."}
func (h *chatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported by response writer")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	id, err := h.resolveSession(r, req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	h.logger.Info("SSE stream started", "session_id", id)
	sink := &sseSink{w: w, flusher: flusher, sessionID: id.String()}

	resp, err := h.agent.ExecuteStream(r.Context(), id, req.Message, sink)
	if err != nil {
		// Headers are sent; errors go down the stream.
		code := "turn_failed"
		switch {
		case errors.Is(err, session.ErrNotFound):
			code = "session_not_found"
		case errors.Is(err, agent.ErrEmptyInput):
			code = "empty_message"
		default:
			h.logger.Error("stream turn failed", "session_id", id, "error", err)
		}
		sink.writeEvent("error", map[string]any{"code": code, "message": err.Error()})
		return
	}

	sink.language = string(resp.Language)
	sink.flushComplete()
	h.logger.Info("SSE stream completed",
		"session_id", id, "tool_calls", resp.ToolCalls, "response_len", len(resp.FinalText))
}

// sseSink forwards agent events to the SSE stream. turn_complete is held
// until the handler knows the resolved language, then flushed.
type sseSink struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	language  string
	finalText string
}

func (s *sseSink) ToolCallStarted(name string, args map[string]any) {
	s.writeEvent("tool_call_started", map[string]any{"tool": name, "args": args})
}

func (s *sseSink) ToolCallResult(name string, result any) {
	s.writeEvent("tool_call_result", map[string]any{"tool": name, "result": result})
}

func (s *sseSink) AnswerToken(text string) {
	s.writeEvent("answer_token", map[string]any{"text": text})
}

func (s *sseSink) TurnComplete(finalText string) {
	s.mu.Lock()
	s.finalText = finalText
	s.mu.Unlock()
}

func (s *sseSink) flushComplete() {
	s.mu.Lock()
	text := s.finalText
	s.mu.Unlock()
	s.writeEvent("turn_complete", map[string]any{
		"session_id": s.sessionID,
		"response":   text,
		"language":   s.language,
	})
}

func (s *sseSink) writeEvent(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	s.mu.Lock()
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
	s.mu.Unlock()
}
