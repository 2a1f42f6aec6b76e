package api

import (
	"context"
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "github.com/Dhruvipatel1708/chatbot/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/Dhruvipatel1708/chatbot/internal/auth"
	"github.com/Dhruvipatel1708/chatbot/internal/logger"
)

// Probe reports whether one dependency is ready to serve.
type Probe func(ctx context.Context) error

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	responder
	probes map[string]Probe
}

func NewHealthHandler(probes map[string]Probe, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{responder: responder{log: log}, probes: probes}
}

// Live godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /healthz [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Checks the session store and the generation backend.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /readyz [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.probes))}
	code := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			h.log.Warnw("Readiness check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.respondWithJSON(w, code, resp)
}

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(
	sessionHandler *SessionHandler,
	chatHandler *ChatHandler,
	healthHandler *HealthHandler,
	authenticator *auth.Authenticator,
	allowedOrigins []string,
	log *zap.SugaredLogger,
) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	// --- Public Routes ---
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		healthHandler.respondWithJSON(w, http.StatusOK, map[string]string{"message": "chatbot!"})
	})
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)

		// Plain JSON routes get a request timeout. The synchronous chat call is
		// bounded by the generation timeout instead.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/sessions", sessionHandler.CreateSession)
			r.Get("/sessions", sessionHandler.ListSessions)
			r.Get("/sessions/{sessionID}/history", sessionHandler.GetHistory)
			r.Put("/sessions/{sessionID}/rename", sessionHandler.RenameSession)
			r.Delete("/sessions/{sessionID}", sessionHandler.DeleteSession)
		})

		// Long-running routes must NOT have a timeout.
		r.Group(func(r chi.Router) {
			r.Post("/sessions/{sessionID}/chat", chatHandler.Chat)
			r.Post("/sessions/{sessionID}/chat/stream", chatHandler.ChatStream)
		})
	})

	return r
}
