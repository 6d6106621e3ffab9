package service

import (
	"time"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/claims/repository"
	"claims_portal_backend/internal/claims/transport"
)

func toListResponse(claims []repository.Claim) transport.ClaimListResponse {
	resp := transport.ClaimListResponse{Items: make([]transport.ClaimResponse, 0, len(claims)), Total: len(claims)}
	for _, c := range claims {
		resp.Items = append(resp.Items, toResponse(c))
	}
	return resp
}

func toResponse(c repository.Claim) transport.ClaimResponse {
	resp := transport.ClaimResponse{
		ID:                 c.ID,
		ClaimID:            c.ClaimID,
		Payer:              c.Payer,
		AmountCents:        c.AmountCents,
		DateOfService:      c.DateOfService.Format(time.DateOnly),
		Status:             c.Status,
		RequiredSkill:      c.RequiredSkill,
		PatientID:          c.PatientID,
		PatientName:        c.PatientName,
		DateOfBirth:        formatDate(c.DateOfBirth),
		CPTCodes:           nonNil(c.CPTCodes),
		ICD10Codes:         nonNil(c.ICD10Codes),
		SubmissionDeadline: formatDate(c.SubmissionDeadline),
		Priority:           c.Priority,
		AssignedToID:       c.AssignedToID,
		AssignedToName:     unassignedName,
	}
	if c.AssignedToName != nil && c.AssignedToID != nil {
		resp.AssignedToName = *c.AssignedToName
	}
	if c.AssignedAt != nil {
		at := c.AssignedAt.UTC().Format(time.RFC3339)
		resp.AssignedAt = &at
	}
	for _, n := range c.Notes {
		resp.Notes = append(resp.Notes, transport.NoteResponse{
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			Content:    n.Content,
			Timestamp:  n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}

func toValidateResponse(plan assignment.Plan) transport.ValidateResponse {
	resp := transport.ValidateResponse{
		Assignable:   make([]transport.PlanEntry, 0, len(plan.Assignable)),
		Unassignable: make([]transport.Rejection, 0, len(plan.Unassignable)),
	}
	for _, e := range plan.Assignable {
		resp.Assignable = append(resp.Assignable, transport.PlanEntry{
			ClaimID:      e.ClaimID,
			AssignTo:     e.AssignTo,
			AssignToName: e.AssignToName,
			Strategy:     e.Strategy.String(),
			RuleID:       e.RuleID,
		})
	}
	for _, r := range plan.Unassignable {
		resp.Unassignable = append(resp.Unassignable, transport.Rejection{ClaimID: r.ClaimID, Reason: r.Reason})
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
