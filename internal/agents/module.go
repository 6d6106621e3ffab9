// Package agents provides the agents bounded context module.
// It manages the people claims are assigned to and the skills they hold.
package agents

import (
	"claims_portal_backend/internal/agents/handler"
	"claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/agents/service"
	"claims_portal_backend/internal/events"
	apphttp "claims_portal_backend/internal/http"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the agents module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapters that build the assignment roster.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts agent and skill routes on the admin group.
func (m *Module) RegisterRoutes(routes *apphttp.Routes) {
	agentsGroup := routes.Admin.Group("/agents")
	agentsGroup.GET("", m.handler.List)
	agentsGroup.POST("", m.handler.Create)
	agentsGroup.GET("/:id", m.handler.GetByID)
	agentsGroup.PUT("/:id", m.handler.Update)
	agentsGroup.PATCH("/:id/active", m.handler.SetActive)

	skillsGroup := routes.Admin.Group("/skills")
	skillsGroup.GET("", m.handler.ListSkills)
	skillsGroup.POST("", m.handler.CreateSkill)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
