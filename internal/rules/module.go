// Package rules provides the assignment rules bounded context module.
package rules

import (
	"claims_portal_backend/internal/events"
	apphttp "claims_portal_backend/internal/http"
	"claims_portal_backend/internal/rules/handler"
	"claims_portal_backend/internal/rules/repository"
	"claims_portal_backend/internal/rules/service"
	"claims_portal_backend/platform/cache"
	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ruleCacheEntries = 16

// Module is the rules bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cache   *cache.Cache[service.RuleSet]
}

// NewModule creates and initializes the rules module with all its dependencies.
// gen tracks rule changes; nil keeps the counter inside this process.
func NewModule(pool *pgxpool.Pool, cfg config.CacheConfig, gen service.Generation, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	rulesCache, err := cache.New[service.RuleSet](ruleCacheEntries)
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, rulesCache, cfg.GetRuleCacheTTL(), gen, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		cache:   rulesCache,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "rules"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts rule routes on the admin group.
func (m *Module) RegisterRoutes(routes *apphttp.Routes) {
	rulesGroup := routes.Admin.Group("/rules")
	rulesGroup.GET("", m.handler.List)
	rulesGroup.POST("", m.handler.Create)
	rulesGroup.PUT("/:id", m.handler.Update)
	rulesGroup.DELETE("/:id", m.handler.Delete)
}

// Close releases the rule cache.
func (m *Module) Close() {
	m.cache.Close()
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
