package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dhruvipatel1708/chatbot/internal/api"
	"github.com/Dhruvipatel1708/chatbot/internal/auth"
	"github.com/Dhruvipatel1708/chatbot/internal/interfaces/mocks"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
)

func setupRouter(t *testing.T, probes map[string]api.Probe) (http.Handler, *auth.Authenticator, *mocks.MockSessionService) {
	t.Helper()
	log := zap.NewNop().Sugar()
	sessions := mocks.NewMockSessionService(t)
	chat := mocks.NewMockChatService(t)

	authenticator, err := auth.NewAuthenticator("router-test-secret", log)
	require.NoError(t, err)

	router := api.NewRouter(
		api.NewSessionHandler(sessions, log),
		api.NewChatHandler(chat, log),
		api.NewHealthHandler(probes, log),
		authenticator,
		[]string{"*"},
		log,
	)
	return router, authenticator, sessions
}

func TestRouter_PublicRoutes(t *testing.T) {
	router, _, _ := setupRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"chatbot!"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	router, _, _ := setupRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestRouter_AuthenticatedRequestReachesHandler(t *testing.T) {
	router, authenticator, sessions := setupRouter(t, nil)
	token, err := authenticator.Issue("student-42")
	require.NoError(t, err)

	sessions.On("List", mock.Anything, "student-42").Return([]model.SessionSummary{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rr.Body.String())
}

func TestRouter_Readiness(t *testing.T) {
	t.Run("All probes pass", func(t *testing.T) {
		router, _, _ := setupRouter(t, map[string]api.Probe{
			"store": func(ctx context.Context) error { return nil },
			"llm":   func(ctx context.Context) error { return nil },
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok","llm":"ok"}}`, rr.Body.String())
	})

	t.Run("Failing probe degrades readiness", func(t *testing.T) {
		router, _, _ := setupRouter(t, map[string]api.Probe{
			"store": func(ctx context.Context) error { return nil },
			"llm":   func(ctx context.Context) error { return errors.New("connection refused") },
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		var body api.HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "unavailable", body.Checks["llm"])
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}
