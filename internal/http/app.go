// Package http defines the contract between the router and the domain
// modules that mount routes on it.
package http

import (
	"context"

	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Module is a bounded context with HTTP routes.
type Module interface {
	Name() string
	RegisterRoutes(routes *Routes)
}

// Routes are the groups a module may mount on. All live under /api/v1.
type Routes struct {
	// Public needs no token.
	Public *gin.RouterGroup
	// Member requires a valid access token.
	Member *gin.RouterGroup
	// Admin requires a valid access token carrying the admin role; mounted at /admin.
	Admin  *gin.RouterGroup
}

// App is what the composition root hands to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	// Health may be nil, in which case the health check always passes.
	Health  HealthChecker
	Modules []Module
}
