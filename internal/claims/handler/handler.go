package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claims_portal_backend/internal/claims/service"
	"claims_portal_backend/internal/claims/transport"
	"claims_portal_backend/platform/httpkit"
	"claims_portal_backend/platform/validator"
)

// Handler handles HTTP requests for claims and assignment.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid claim ID"
)

// New creates a new claims handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Intake stores a batch of normalized claim records.
// POST /api/v1/admin/claims/batch
func (h *Handler) Intake(c *gin.Context) {
	var req transport.BatchIntakeRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Intake(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List retrieves every claim.
// GET /api/v1/admin/claims
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Validate previews an assignment run. An empty body plans every unassigned claim.
// POST /api/v1/admin/claims/validate
func (h *Handler) Validate(c *gin.Context) {
	var req transport.ValidateRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}
	result, err := h.svc.Validate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Execute commits reviewed plan entries.
// POST /api/v1/admin/claims/execute
func (h *Handler) Execute(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.ExecuteRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.Execute(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ResetCapacity rolls daily counters over if the day changed.
// POST /api/v1/admin/capacity/reset
func (h *Handler) ResetCapacity(c *gin.Context) {
	result, err := h.svc.ResetCapacity(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MemberClaims lists the caller's own claims.
// GET /api/v1/member/claims
func (h *Handler) MemberClaims(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.MemberClaims(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateMemberClaim changes the status of the caller's claim and/or appends a note.
// PUT /api/v1/member/claims/:id
func (h *Handler) UpdateMemberClaim(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.MemberUpdateRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateMemberClaim(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}
