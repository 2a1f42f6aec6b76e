package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

// This file contains shared DTOs (Data Transfer Objects) for API requests and
// responses and the helpers that write them.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by mutations that have no resource to send back.
type StatusResponse struct {
	Status string `json:"status" example:"renamed"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	SessionID   string `json:"session_id" validate:"required,max=128" example:"s1"`
	SessionName string `json:"session_name" validate:"max=100" example:"New Chat"`
}

// CreateSessionResponse reports whether the session was created or already existed.
type CreateSessionResponse struct {
	Status    model.CreateStatus `json:"status" example:"created"`
	SessionID string             `json:"session_id" example:"s1"`
}

// SessionListResponse wraps the owner's session summaries.
type SessionListResponse struct {
	Sessions []model.SessionSummary `json:"sessions"`
}

// HistoryResponse is a session's name and full ordered turn log.
type HistoryResponse struct {
	SessionID   string       `json:"session_id" example:"s1"`
	SessionName string       `json:"session_name" example:"What is a stack?"`
	Messages    []model.Turn `json:"messages"`
}

// RenameSessionRequest is the body of PUT /sessions/{sessionID}/rename.
type RenameSessionRequest struct {
	NewName string `json:"new_name" validate:"required,max=100" example:"Data structures"`
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Text string `json:"text" validate:"required,max=16000" example:"What is a stack?"`
}

// ChatResponse carries the cleaned assistant reply of a synchronous exchange.
type ChatResponse struct {
	Response string `json:"response" example:"A stack is a LIFO collection."`
}

// HealthResponse is returned by the probes.
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// responder writes JSON and SSE responses and logs what it sends.
type responder struct {
	log *zap.SugaredLogger
}

// statusFor maps business errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app_errors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, app_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, app_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, app_errors.ErrGenerationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError is the centralized error handling function for the API layer.
// The detailed error is logged; the client gets a message that leaks no internals.
func (rs responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := statusFor(err)
	message := app_errors.Message(err)

	if statusCode >= http.StatusInternalServerError {
		rs.log.Errorw("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	} else {
		rs.log.Warnw("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)
	}

	rs.respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func (rs responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		rs.log.Errorw("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		rs.log.Errorw("Failed to write JSON response", "error", err)
	}
}

// sendStreamError sends an `event: error` frame over an SSE stream.
func (rs responder) sendStreamError(w http.ResponseWriter, message string) {
	rs.log.Warnw("Sending stream error to client", "message", message)

	jsonData, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		rs.log.Errorw("Failed to marshal stream error payload", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(jsonData)); err != nil {
		// Usually the client closed the connection.
		rs.log.Warnw("Failed to write stream error, client might have disconnected", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeStreamEvent writes one `data:` frame. A write error means the client is gone.
func (rs responder) writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		rs.log.Errorw("Failed to marshal stream data to JSON", "error", err)
		return nil
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(jsonData)); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func startStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}
