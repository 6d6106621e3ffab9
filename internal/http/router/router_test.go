package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "claims_portal_backend/internal/http"
	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(routes *apphttp.Routes) {
	routes.Public.GET("/public/ping", func(c *gin.Context) { c.String(http.StatusOK, "public") })
	routes.Member.GET("/member/ping", func(c *gin.Context) { c.String(http.StatusOK, "member") })
	routes.Admin.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "admin") })
}

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret: "router-secret",
		CORSOrigins:     []string{"http://localhost:4200"},
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
	}
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig(),
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	})
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("router-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func get(engine http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	if rec := get(newEngine(pinger{}), "/api/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(newEngine(pinger{err: errors.New("down")}), "/api/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec := get(newEngine(nil), "/api/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without health checker, got %d", rec.Code)
	}
}

func TestRouteGroups(t *testing.T) {
	engine := newEngine(pinger{})

	cases := []struct {
		name   string
		path   string
		bearer string
		want   int
	}{
		{"public without token", "/api/v1/public/ping", "", http.StatusOK},
		{"member without token", "/api/v1/member/ping", "", http.StatusUnauthorized},
		{"member with token", "/api/v1/member/ping", token(t, "member"), http.StatusOK},
		{"admin as member", "/api/v1/admin/ping", token(t, "member"), http.StatusForbidden},
		{"admin as admin", "/api/v1/admin/ping", token(t, "Admin"), http.StatusOK},
	}
	for _, tc := range cases {
		if rec := get(engine, tc.path, tc.bearer); rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec := get(newEngine(pinger{}), "/api/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}
