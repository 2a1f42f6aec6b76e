package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dhruvipatel1708/chatbot/internal/api"
	"github.com/Dhruvipatel1708/chatbot/internal/auth"
	"github.com/Dhruvipatel1708/chatbot/internal/config"
	"github.com/Dhruvipatel1708/chatbot/internal/database"
	"github.com/Dhruvipatel1708/chatbot/internal/llm"
	"github.com/Dhruvipatel1708/chatbot/internal/lock"
	"github.com/Dhruvipatel1708/chatbot/internal/logger"
	"github.com/Dhruvipatel1708/chatbot/internal/metrics"
	"github.com/Dhruvipatel1708/chatbot/internal/prompt"
	"github.com/Dhruvipatel1708/chatbot/internal/repository"
	"github.com/Dhruvipatel1708/chatbot/internal/service"
)

const (
	shutdownTimeout = 15 * time.Second
	backendWaitMax  = 30 * time.Second
	lockMargin      = 30 * time.Second
)

// App holds the wired server and everything that must be closed with it.
type App struct {
	Server   *http.Server
	Provider llm.LLMProvider

	log     *zap.SugaredLogger
	closers []func() error
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// The logger is not configured yet.
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = log.Sync() }()

	logConfigSource(cfg, log)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.Errorw("Failed to initialize application", "error", err)
		return 1
	}
	defer app.Close()

	if cfg.LLMProvider == "ollama" {
		waitForBackend(ctx, app.Provider, log)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting server", "port", cfg.AppPort, "store", cfg.StoreDriver, "llm_provider", cfg.LLMProvider, "model", cfg.Model)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Errorw("Server failed", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}

// lockTTL returns the redis lock lifetime. Zero derives it from the generation
// timeout; an explicit value must outlive a whole exchange or a second request
// could take the lock while the first is still persisting.
func lockTTL(cfg *config.Config) (time.Duration, error) {
	if cfg.LockDriver != "redis" {
		return 0, nil
	}
	exchange := cfg.GenerationTimeout + service.PersistBudget
	switch {
	case cfg.LockTTL == 0:
		return exchange + lockMargin, nil
	case cfg.LockTTL <= exchange:
		return 0, fmt.Errorf("LOCK_TTL %s must exceed GENERATION_TIMEOUT %s plus %s", cfg.LockTTL, cfg.GenerationTimeout, service.PersistBudget)
	}
	return cfg.LockTTL, nil
}

// NewApp builds the store, locker, provider, services and router described by cfg.
// On error every resource opened so far is released.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (_ *App, err error) {
	ttl, err := lockTTL(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{log: log}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	var rdb *redis.Client
	redisClient := func() (*redis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c, err := database.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, c.Close)
		rdb = c
		return rdb, nil
	}

	repo, err := app.newRepository(ctx, cfg, redisClient)
	if err != nil {
		return nil, err
	}

	var locker lock.Locker
	switch cfg.LockDriver {
	case "", "local":
		locker = lock.NewKeyedMutex()
	case "redis":
		c, err := redisClient()
		if err != nil {
			return nil, err
		}
		locker = lock.NewRedisLocker(c, ttl, log)
	default:
		return nil, fmt.Errorf("unknown LOCK_DRIVER %q", cfg.LockDriver)
	}

	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.Provider = provider

	tmpl, err := prompt.Load(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}
	log.Infow("Loaded prompt template", "version", tmpl.Version)

	authenticator, err := auth.NewAuthenticator(cfg.JWTSecret, log)
	if err != nil {
		return nil, err
	}

	sessionService := service.NewSessionService(repo, log)
	chatService := service.NewChatService(repo, provider, locker, prompt.NewComposer(tmpl, cfg.PromptMaxChars), service.ChatOptions{
		Model:        cfg.Model,
		HistoryLimit: cfg.HistoryLimit,
		Timeout:      cfg.GenerationTimeout,
		Options:      requestOptions(cfg),
	}, log)

	probes := map[string]api.Probe{
		"store": repo.Ping,
		"llm":   provider.Ping,
	}
	router := api.NewRouter(
		api.NewSessionHandler(sessionService, log),
		api.NewChatHandler(chatService, log),
		api.NewHealthHandler(probes, log),
		authenticator,
		splitOrigins(cfg.CORSAllowedOrigins),
		log,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}
	return app, nil
}

func (a *App) newRepository(ctx context.Context, cfg *config.Config, redisClient func() (*redis.Client, error)) (repository.Repository, error) {
	switch cfg.StoreDriver {
	case "", "sqlite":
		db, err := database.InitDB(cfg.DatabasePath, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.log.Infow("Successfully connected to SQLite database.", "path", cfg.DatabasePath)
		return repository.NewSQLiteRepository(db), nil
	case "redis":
		rdb, err := redisClient()
		if err != nil {
			return nil, err
		}
		a.log.Infow("Successfully connected to Redis.", "addr", cfg.RedisAddr)
		return repository.NewRedisRepository(rdb), nil
	case "mongo":
		client, db, err := database.InitMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		a.log.Infow("Successfully connected to MongoDB.", "database", cfg.MongoDB)
		return repository.NewMongoRepository(db), nil
	case "memory":
		a.log.Warn("Using the in-memory session store; sessions are lost on restart.")
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newProvider(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "", "ollama":
		return llm.NewOllamaProvider(cfg.OllamaURL, cfg.Model, cfg.GenerationTimeout, log), nil
	case "gemini":
		return llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.GenerationTimeout, log)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// requestOptions returns nil when no sampling parameter is configured, so the
// backend applies its own defaults.
func requestOptions(cfg *config.Config) *llm.RequestOptions {
	var opts llm.RequestOptions
	set := false
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		opts.Temperature = &t
		set = true
	}
	if cfg.TopP > 0 {
		p := cfg.TopP
		opts.TopP = &p
		set = true
	}
	if cfg.NumPredict > 0 {
		n := cfg.NumPredict
		opts.NumPredict = &n
		set = true
	}
	if !set {
		return nil
	}
	return &opts
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Close releases store and cache connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Errorw("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func logConfigSource(cfg *config.Config, log *zap.SugaredLogger) {
	if cfg.ConfigFile != "" {
		log.Infow("Successfully loaded configuration from file.", "file", cfg.ConfigFile)
	} else {
		log.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

// waitForBackend polls the generation backend until it answers, ctx is done
// or backendWaitMax passes. Startup continues either way; readiness reports
// the backend state from then on.
func waitForBackend(ctx context.Context, provider llm.LLMProvider, log *zap.SugaredLogger) {
	log.Infow("Waiting for the generation backend to be ready...", "provider", provider.Name())
	ctx, cancel := context.WithTimeout(ctx, backendWaitMax)
	defer cancel()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := provider.Ping(pingCtx)
		pingCancel()
		if err == nil {
			log.Info("Generation backend is ready.")
			return
		}
		log.Debugw("Generation backend not ready yet, retrying in 3 seconds...", "error", err)

		select {
		case <-ctx.Done():
			log.Warnw("Generation backend still unavailable, starting anyway", "error", err)
			return
		case <-ticker.C:
		}
	}
}
