package handlers

import (
	"crea-bienestar/internal/domain/services"
	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/internal/infrastructure/cache"
	"crea-bienestar/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health *HealthHandler
	Chat   *ChatHandler
	Risk   *RiskHandler
	Alerts *AlertsHandler
	Admin  *AdminHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	ChatService  *services.ChatService
	AlertService *services.AlertService
	Compressor   *services.Compressor
	Analyzer     *risk.Analyzer
	Cache        *cache.RedisCache
	DB           Pinger
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Chat:   NewChatHandler(deps.ChatService, deps.Logger),
		Risk:   NewRiskHandler(deps.Analyzer, deps.Cache, deps.Logger),
		Alerts: NewAlertsHandler(deps.AlertService, deps.Logger),
		Admin:  NewAdminHandler(deps.Compressor, deps.Logger),
	}
}
