package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"crea-bienestar/internal/api"
	"crea-bienestar/internal/api/handlers"
	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/services"
	"crea-bienestar/internal/domain/services/ai"
	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/internal/infrastructure/cache"
	"crea-bienestar/internal/infrastructure/database"
	"crea-bienestar/internal/infrastructure/database/repository"
	"crea-bienestar/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Crea Bienestar")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	repos := repository.NewRepositories(db)
	log.Info().Msg("repositories initialized")

	// Initialize the generation client. An empty API key leaves it
	// disabled and the chat falls back to canned replies.
	generator, err := ai.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize generation client")
	}

	// Initialize services
	analyzer := risk.NewAnalyzer(log)
	alertService := services.NewAlertService(cfg.Chat, repos.Alerts, repos.Messages, redisCache, log)
	compressor := services.NewCompressor(cfg.Chat, repos.Messages, repos, generator, log)
	chatService := services.NewChatService(
		cfg.Chat,
		repos.Conversations,
		repos.Messages,
		redisCache,
		analyzer,
		generator,
		alertService,
		compressor,
		log,
	)
	log.Info().Bool("generation_enabled", generator.Ready()).Msg("services initialized")

	// Initialize handlers
	deps := handlers.Dependencies{
		ChatService:  chatService,
		AlertService: alertService,
		Compressor:   compressor,
		Analyzer:     analyzer,
		Cache:        redisCache,
		DB:           db,
		Logger:       log,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return db, redisCache, nil
}
