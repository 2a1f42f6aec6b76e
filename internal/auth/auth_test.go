package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
)

func newAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator("test-secret", zap.NewNop().Sugar())
	require.NoError(t, err)
	return a
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	a, err := NewAuthenticator("", zap.NewNop().Sugar())
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestIssueAndVerify(t *testing.T) {
	a := newAuth(t)

	token, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	owner, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", owner)
}

func TestVerify(t *testing.T) {
	a := newAuth(t)
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("Email claim is used when sub is absent", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{"email": "bob@example.com", "exp": exp})
		owner, err := a.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", owner)
	})

	t.Run("Wrong secret is rejected", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "x", "exp": exp})
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Minute).Unix()})
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})

	t.Run("Token without identity is rejected", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{"exp": exp})
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})

	t.Run("Unsigned token is rejected", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "x"})
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := a.Verify("not-a-jwt")
		assert.ErrorIs(t, err, app_errors.ErrUnauthorized)
	})
}

func TestMiddleware(t *testing.T) {
	a := newAuth(t)
	var seen string
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := a.Issue("carol")
	require.NoError(t, err)

	testCases := []struct {
		name         string
		header       string
		expectedCode int
		expectedUser string
	}{
		{"Valid bearer token", "Bearer " + token, http.StatusNoContent, "carol"},
		{"Lowercase scheme", "bearer " + token, http.StatusNoContent, "carol"},
		{"Missing header", "", http.StatusUnauthorized, ""},
		{"Wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"Empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"Invalid token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedUser, seen)
			if tc.expectedCode == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"error"`)
			}
		})
	}
}

func TestOwnerFromContext_Empty(t *testing.T) {
	_, ok := OwnerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
