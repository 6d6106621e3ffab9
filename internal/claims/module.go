// Package claims provides the claims bounded context module: intake of
// normalized claim records, the validate/execute assignment workflow and
// the member view of assigned work.
package claims

import (
	"claims_portal_backend/internal/claims/handler"
	"claims_portal_backend/internal/claims/repository"
	"claims_portal_backend/internal/claims/service"
	"claims_portal_backend/internal/events"
	apphttp "claims_portal_backend/internal/http"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the claims bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the claims module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	roster service.AgentRoster,
	rules service.RuleSource,
	engine service.AssignmentEngine,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, roster, rules, engine, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "claims"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts admin assignment routes and member claim routes.
func (m *Module) RegisterRoutes(routes *apphttp.Routes) {
	adminClaims := routes.Admin.Group("/claims")
	adminClaims.GET("", m.handler.List)
	adminClaims.POST("/batch", m.handler.Intake)
	adminClaims.POST("/validate", m.handler.Validate)
	adminClaims.POST("/execute", m.handler.Execute)

	routes.Admin.POST("/capacity/reset", m.handler.ResetCapacity)

	memberClaims := routes.Member.Group("/member/claims")
	memberClaims.GET("", m.handler.MemberClaims)
	memberClaims.PUT("/:id", m.handler.UpdateMemberClaim)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
