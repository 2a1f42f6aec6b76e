package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dhruvipatel1708/chatbot/internal/auth"
	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/interfaces"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	responder
	sessions interfaces.SessionService
}

func NewSessionHandler(sessions interfaces.SessionService, log *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{responder: responder{log: log}, sessions: sessions}
}

// ChatHandler serves the chat exchange endpoints.
type ChatHandler struct {
	responder
	chat interfaces.ChatService
}

func NewChatHandler(chat interfaces.ChatService, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{responder: responder{log: log}, chat: chat}
}

func ownerFrom(r *http.Request) (string, error) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return "", fmt.Errorf("%w: no owner in request context", app_errors.ErrUnauthorized)
	}
	return owner, nil
}

// CreateSession godoc
// @Summary      Create a session
// @Description  Creates a session for the caller. Creating an id that already exists is a no-op that reports "exists".
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateSessionRequest  true  "Session id and optional name"
// @Success      201      {object}  CreateSessionResponse
// @Success      200      {object}  CreateSessionResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /v1/sessions [post]
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req CreateSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	status, err := h.sessions.Create(r.Context(), owner, req.SessionID, req.SessionName)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	code := http.StatusOK
	if status == model.StatusCreated {
		code = http.StatusCreated
	}
	h.respondWithJSON(w, code, CreateSessionResponse{Status: status, SessionID: req.SessionID})
}

// ListSessions godoc
// @Summary      List sessions
// @Description  Lists the caller's sessions, most recently updated first, each with a short preview.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SessionListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/sessions [get]
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	sessions, err := h.sessions.List(r.Context(), owner)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if sessions == nil {
		sessions = []model.SessionSummary{}
	}
	h.respondWithJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions})
}

// GetHistory godoc
// @Summary      Get session history
// @Description  Returns the session name and every turn in chronological order.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  HistoryResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/history [get]
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.History(r.Context(), owner, sessionID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	messages := sess.Turns
	if messages == nil {
		messages = []model.Turn{}
	}
	h.respondWithJSON(w, http.StatusOK, HistoryResponse{SessionID: sess.ID, SessionName: sess.Title, Messages: messages})
}

// RenameSession godoc
// @Summary      Rename a session
// @Description  Sets a user-chosen name. Automatic naming never overwrites it afterwards.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID  path      string                true  "Session ID"
// @Param        request    body      RenameSessionRequest  true  "New name"
// @Success      200        {object}  StatusResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/rename [put]
func (h *SessionHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req RenameSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	if err := h.sessions.Rename(r.Context(), owner, sessionID, req.NewName); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, StatusResponse{Status: "renamed"})
}

// DeleteSession godoc
// @Summary      Delete a session
// @Description  Removes the session and all of its turns.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  StatusResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [delete]
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.Delete(r.Context(), owner, sessionID); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Chat godoc
// @Summary      Send a message
// @Description  Runs one exchange and returns the cleaned reply once generation has finished.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID  path      string       true  "Session ID"
// @Param        request    body      ChatRequest  true  "User message"
// @Success      200        {object}  ChatResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Failure      502        {object}  ErrorResponse
// @Failure      504        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req ChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.chat.Chat(r.Context(), owner, sessionID, req.Text)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, ChatResponse{Response: result.Reply})
}

// ChatStream godoc
// @Summary      Send a message and stream the reply
// @Description  Streams reply fragments as Server-Sent Events. The final frame has done=true and the full cleaned reply. Errors after the stream has started arrive as an "error" event.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        sessionID  path      string                true  "Session ID"
// @Param        request    body      ChatRequest           true  "User message"
// @Success      200        {object}  model.StreamResponse  "Stream of reply fragments"
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/chat/stream [post]
func (h *ChatHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req ChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	streamChan := make(chan model.StreamResponse)
	go h.chat.ChatStream(r.Context(), owner, sessionID, req.Text, streamChan)

	started := false
	for chunk := range streamChan {
		// Failures before the first fragment still get a proper status code.
		if !started && chunk.Error != "" {
			err := chunk.Err
			if err == nil {
				err = errors.New(chunk.Error)
			}
			h.respondWithError(w, err)
			break
		}
		if !started {
			startStream(w)
			started = true
		}

		if chunk.Error != "" {
			h.sendStreamError(w, chunk.Error)
			continue
		}
		if err := h.writeStreamEvent(w, chunk); err != nil {
			h.log.Infow("Client disconnected during chat stream", "session_id", sessionID, "owner_id", owner)
			break
		}
	}

	// The exchange keeps running after a disconnect; drain so it never blocks on us.
	for range streamChan {
	}
}
