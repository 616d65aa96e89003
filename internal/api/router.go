package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"crea-bienestar/internal/api/handlers"
	apimiddleware "crea-bienestar/internal/api/middleware"
	"crea-bienestar/internal/config"
	"crea-bienestar/internal/infrastructure/cache"
	"crea-bienestar/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		// Conversation endpoints
		api.Route("/chat/conversations", func(chat chi.Router) {
			chat.Post("/", r.handlers.Chat.StartConversation)
			chat.Get("/", r.handlers.Chat.ListConversations)
			chat.Get("/{id}", r.handlers.Chat.GetConversation)
			chat.Get("/{id}/messages", r.handlers.Chat.ListMessages)
			chat.Post("/{id}/messages", r.handlers.Chat.SendMessage)
			chat.Post("/{id}/close", r.handlers.Chat.CloseConversation)
		})

		// Standalone risk analysis
		api.Route("/risk", func(rk chi.Router) {
			rk.Post("/analyze", r.handlers.Risk.Analyze)
			rk.Get("/lexicon", r.handlers.Risk.Lexicon)
		})

		// Counselor alert endpoints
		api.Route("/alerts", func(alerts chi.Router) {
			alerts.Get("/", r.handlers.Alerts.List)
			alerts.Get("/stats", r.handlers.Alerts.Stats)
			alerts.Get("/{id}", r.handlers.Alerts.Get)
			alerts.Post("/{id}/assign", r.handlers.Alerts.Assign)
			alerts.Post("/{id}/status", r.handlers.Alerts.UpdateStatus)
		})

		// Maintenance
		api.Post("/admin/compress", r.handlers.Admin.Compress)
	})

	return router
}
