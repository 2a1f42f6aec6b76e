// Package auth verifies bearer tokens and carries the caller's identity in the
// request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
)

type ctxKey struct{}

// Authenticator verifies HS256 tokens signed with a single shared secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewAuthenticator(secret string, log *zap.SugaredLogger) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Authenticator{secret: []byte(secret), ttl: 24 * time.Hour, log: log}, nil
}

// Issue signs a token for owner. The server never issues tokens to clients;
// this exists for tooling and tests.
func (a *Authenticator) Issue(owner string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify returns the owner id carried by token: "sub", or "email" when sub is absent.
func (a *Authenticator) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", app_errors.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid token claims", app_errors.ErrUnauthorized)
	}

	owner, _ := claims["sub"].(string)
	if owner == "" {
		owner, _ = claims["email"].(string)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", fmt.Errorf("%w: token carries no subject", app_errors.ErrUnauthorized)
	}
	return owner, nil
}

// Middleware rejects requests without a valid bearer token with 401 before
// they reach any handler, and stores the owner id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			a.reject(w, "missing bearer token")
			return
		}
		owner, err := a.Verify(token)
		if err != nil {
			a.log.Debugw("Rejected bearer token", "error", err, "path", r.URL.Path)
			a.reject(w, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(hdr[7:])
	return token, token != ""
}

// WithOwner returns a copy of ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// OwnerFromContext returns the owner stored by Middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ctxKey{}).(string)
	return owner, ok && owner != ""
}
