package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polychat-backend/internal/api"
	"polychat-backend/internal/config"
	"polychat-backend/internal/handlers"
	"polychat-backend/internal/providers"
	"polychat-backend/internal/services"
	"polychat-backend/internal/store"
	"polychat-backend/internal/store/postgres"
	"polychat-backend/internal/store/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schemaEnsurer is implemented by both store backends.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting PolyChat Backend...",
		zap.String("environment", cfg.Environment),
		zap.String("store_driver", cfg.StoreDriver),
		zap.Bool("env_file_loaded", cfg.EnvFileLoaded),
	)

	// 2. Initialize Store
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()

	st, closeStore, err := openStore(initCtx, cfg, logger)
	if err != nil {
		logger.Fatal("Unable to initialize store", zap.Error(err))
	}
	defer closeStore()

	if cfg.AutoMigrate {
		if err := st.(schemaEnsurer).EnsureSchema(initCtx); err != nil {
			logger.Fatal("Unable to apply schema", zap.Error(err))
		}
		logger.Info("Database schema ensured.")
	}

	// 3. Initialize Provider Registry
	registry := newProviderRegistry(cfg, logger)

	// --- Initialize Services ---
	authService := services.NewAuthService(st, cfg, logger)
	chatService := services.NewChatService(st, registry, logger)
	modelService := services.NewModelService(registry, logger)

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService, logger),
		ChatHandler:   handlers.NewChatHandlers(chatService, logger),
		ModelsHandler: handlers.NewModelHandlers(modelService, logger),
		Config:        cfg,
		Logger:        logger,
	})

	// 5. Configure and Start HTTP Server
	// WriteTimeout must outlast a slow model call; zero disables it along with the provider timeout.
	var writeTimeout time.Duration
	if cfg.ProviderTimeout > 0 {
		writeTimeout = cfg.ProviderTimeout + 30*time.Second
	}
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Could not listen", zap.String("port", cfg.HTTPPort), zap.Error(err))
		}
	}()

	<-stopChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("Server shutdown complete.")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore connects the configured backend and returns it with its close function.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("pinging sqlite: %w", err)
		}
		logger.Info("SQLite store initialized.", zap.String("path", cfg.SQLitePath))
		return sqlite.NewSQLiteStore(db, logger), func() { db.Close() }, nil
	default:
		dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("creating connection pool: %w", err)
		}
		if err := dbpool.Ping(ctx); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("pinging database: %w", err)
		}
		logger.Info("Postgres store initialized.")
		return postgres.NewPostgresStore(dbpool, logger), dbpool.Close, nil
	}
}

// newProviderRegistry registers all three adapters. A missing key is not fatal; calls to
// that provider fail upstream and are reported as 502.
func newProviderRegistry(cfg *config.Config, logger *zap.Logger) *providers.Registry {
	client := providers.NewHTTPClient(cfg.ProviderTimeout)
	registry := providers.NewRegistry(logger)

	adapters := []struct {
		pc    config.ProviderConfig
		build func(providers.Config, *http.Client, *zap.Logger) providers.Provider
	}{
		{cfg.OpenAI, func(c providers.Config, h *http.Client, l *zap.Logger) providers.Provider {
			return providers.NewOpenAIAdapter(c, h, l)
		}},
		{cfg.Anthropic, func(c providers.Config, h *http.Client, l *zap.Logger) providers.Provider {
			return providers.NewAnthropicAdapter(c, h, l)
		}},
		{cfg.Google, func(c providers.Config, h *http.Client, l *zap.Logger) providers.Provider {
			return providers.NewGoogleAdapter(c, h, l)
		}},
	}

	for _, a := range adapters {
		p := a.build(providers.Config{APIKey: a.pc.APIKey, BaseURL: a.pc.BaseURL}, client, logger)
		if a.pc.APIKey == "" {
			logger.Warn("API key not configured", zap.String("provider", string(p.Name())))
		}
		registry.Register(p)
	}
	return registry
}
