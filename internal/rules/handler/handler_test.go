package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claims_portal_backend/internal/rules/repository"
	"claims_portal_backend/internal/rules/service"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/validator"
)

type stubRepo struct {
	repository.Repository
	created int
}

func (r *stubRepo) Create(_ context.Context, p repository.CreateParams) (repository.Rule, error) {
	r.created++
	return repository.Rule{ID: uuid.New(), CriteriaType: p.CriteriaType, CriteriaValue: p.CriteriaValue, Strategy: p.Strategy}, nil
}

func (r *stubRepo) Delete(context.Context, uuid.UUID) error {
	return apperr.NotFound("rule not found")
}

func newRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(service.New(repo, nil, 0, nil, nil, logger.Discard()), validator.New())
	r := gin.New()
	r.POST("/rules", h.Create)
	r.DELETE("/rules/:id", h.Delete)
	return r
}

func do(r http.Handler, method, path, body string) int {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestCreateRule(t *testing.T) {
	repo := &stubRepo{}
	r := newRouter(repo)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"criteriaType":"payer","criteriaValue":"Acme","strategy":"seniority","priority":10}`, http.StatusCreated},
		{"cpt code", `{"criteriaType":"cpt_code","criteriaValue":"99213","strategy":"age"}`, http.StatusCreated},
		{"unknown criteria", `{"criteriaType":"amount","criteriaValue":"100","strategy":"age"}`, http.StatusBadRequest},
		{"unknown strategy", `{"criteriaType":"payer","criteriaValue":"Acme","strategy":"random"}`, http.StatusBadRequest},
		{"negative priority", `{"criteriaType":"payer","criteriaValue":"Acme","strategy":"age","priority":-1}`, http.StatusBadRequest},
		{"malformed", `{"criteriaType":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := do(r, http.MethodPost, "/rules", tc.body); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
	if repo.created != 2 {
		t.Fatalf("expected 2 rules created, got %d", repo.created)
	}
}

func TestDeleteRule(t *testing.T) {
	r := newRouter(&stubRepo{})
	if got := do(r, http.MethodDelete, "/rules/abc", ""); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", got)
	}
	if got := do(r, http.MethodDelete, "/rules/"+uuid.NewString(), ""); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}
