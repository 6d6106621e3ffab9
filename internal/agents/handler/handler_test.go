package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/agents/service"
	"claims_portal_backend/internal/agents/transport"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/validator"
)

type stubRepo struct {
	repository.Repository
	agents map[uuid.UUID]repository.Agent
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return repository.Agent{}, apperr.NotFound("agent not found")
	}
	return a, nil
}

func (r *stubRepo) Create(_ context.Context, p repository.CreateParams) (repository.Agent, error) {
	a := repository.Agent{ID: uuid.New(), Name: p.Name, Username: p.Username, Role: p.Role, DefaultStrategy: p.DefaultStrategy, IsActive: true}
	r.agents[a.ID] = a
	return a, nil
}

func (r *stubRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	a, ok := r.agents[id]
	if !ok {
		return apperr.NotFound("agent not found")
	}
	a.IsActive = active
	r.agents[id] = a
	return nil
}

func newRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(repo, nil, logger.Discard()), validator.New())
	r := gin.New()
	r.POST("/agents", h.Create)
	r.GET("/agents/:id", h.GetByID)
	r.PATCH("/agents/:id/active", h.SetActive)
	return r
}

func send(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateAgent(t *testing.T) {
	r := newRouter(&stubRepo{agents: map[uuid.UUID]repository.Agent{}})

	rec := send(r, http.MethodPost, "/agents", map[string]any{
		"name": "Ana", "username": "ana", "role": "Member", "maxDailyClaims": 5, "defaultStrategy": "payer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.AgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Username != "ana" || !resp.IsActive {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateAgentValidation(t *testing.T) {
	r := newRouter(&stubRepo{agents: map[uuid.UUID]repository.Agent{}})

	cases := map[string]map[string]any{
		"unknown strategy": {"name": "Ana", "username": "ana", "role": "Member", "defaultStrategy": "random"},
		"blank name":       {"name": "  ", "username": "ana", "role": "Member", "defaultStrategy": "age"},
		"negative max":     {"name": "Ana", "username": "ana", "role": "Member", "defaultStrategy": "age", "maxDailyClaims": -1},
		"bad role":         {"name": "Ana", "username": "ana", "role": "Owner", "defaultStrategy": "age"},
	}
	for name, body := range cases {
		if rec := send(r, http.MethodPost, "/agents", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestSetActive(t *testing.T) {
	id := uuid.New()
	r := newRouter(&stubRepo{agents: map[uuid.UUID]repository.Agent{id: {ID: id, IsActive: true}}})

	if rec := send(r, http.MethodPatch, "/agents/"+id.String()+"/active", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing active flag: expected 400, got %d", rec.Code)
	}
	if rec := send(r, http.MethodPatch, "/agents/not-a-uuid/active", map[string]any{"active": false}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
	if rec := send(r, http.MethodPatch, "/agents/"+uuid.NewString()+"/active", map[string]any{"active": false}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown agent: expected 404, got %d", rec.Code)
	}

	rec := send(r, http.MethodPatch, "/agents/"+id.String()+"/active", map[string]any{"active": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp transport.AgentResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.IsActive {
		t.Fatal("expected agent deactivated")
	}
}
