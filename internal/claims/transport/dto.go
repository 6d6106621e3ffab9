package transport

import "github.com/google/uuid"

// ClaimRecord is one normalized claim from the upload pipeline.
// Dates use YYYY-MM-DD.
type ClaimRecord struct {
	ClaimID            string   `json:"claimId" validate:"required,notblank,max=100"`
	Payer              string   `json:"payer" validate:"required,notblank,max=200"`
	AmountCents        int64    `json:"amountCents" validate:"min=0"`
	DateOfService      string   `json:"dateOfService" validate:"required,datetime=2006-01-02"`
	RequiredSkill      *string  `json:"requiredSkill,omitempty" validate:"omitempty,max=100"`
	PatientID          *string  `json:"patientId,omitempty" validate:"omitempty,max=100"`
	PatientName        *string  `json:"patientName,omitempty" validate:"omitempty,max=200"`
	DateOfBirth        *string  `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CPTCodes           []string `json:"cptCodes,omitempty" validate:"omitempty,dive,notblank,max=20"`
	ICD10Codes         []string `json:"icd10Codes,omitempty" validate:"omitempty,dive,notblank,max=20"`
	SubmissionDeadline *string  `json:"submissionDeadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Priority           int      `json:"priority" validate:"min=0"`
}

// BatchIntakeRequest carries a batch of claim records.
type BatchIntakeRequest struct {
	Claims []ClaimRecord `json:"claims" validate:"required,min=1,max=5000,dive"`
}

// IntakeResult reports what happened to one record.
type IntakeResult struct {
	ClaimID string `json:"claimId"`
	Created bool   `json:"created"`
	Reason  string `json:"reason,omitempty"`
}

// BatchIntakeResponse reports per-record outcomes.
type BatchIntakeResponse struct {
	Created int            `json:"created"`
	Results []IntakeResult `json:"results"`
}

// NoteResponse represents a claim note.
type NoteResponse struct {
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	Timestamp  string    `json:"timestamp"`
}

// ClaimResponse represents a claim in API responses.
type ClaimResponse struct {
	ID                 uuid.UUID      `json:"id"`
	ClaimID            string         `json:"claimId"`
	Payer              string         `json:"payer"`
	AmountCents        int64          `json:"amountCents"`
	DateOfService      string         `json:"dateOfService"`
	Status             string         `json:"status"`
	RequiredSkill      *string        `json:"requiredSkill,omitempty"`
	PatientID          *string        `json:"patientId,omitempty"`
	PatientName        *string        `json:"patientName,omitempty"`
	DateOfBirth        *string        `json:"dateOfBirth,omitempty"`
	CPTCodes           []string       `json:"cptCodes"`
	ICD10Codes         []string       `json:"icd10Codes"`
	SubmissionDeadline *string        `json:"submissionDeadline,omitempty"`
	Priority           int            `json:"priority"`
	AssignedToID       *uuid.UUID     `json:"assignedToId,omitempty"`
	AssignedToName     string         `json:"assignedToName"`
	AssignedAt         *string        `json:"assignedAt,omitempty"`
	Notes              []NoteResponse `json:"notes,omitempty"`
}

// ClaimListResponse wraps a list of claims.
type ClaimListResponse struct {
	Items []ClaimResponse `json:"items"`
	Total int             `json:"total"`
}

// ValidateRequest selects the claims to plan. An empty list plans every unassigned claim.
type ValidateRequest struct {
	ClaimIDs []string `json:"claimIds" validate:"omitempty,max=5000,dive,notblank"`
}

// PlanEntry is an assignment the engine proposes, echoed back on execute.
type PlanEntry struct {
	ClaimID      string     `json:"claimId" validate:"required,notblank"`
	AssignTo     uuid.UUID  `json:"assignTo" validate:"required"`
	AssignToName string     `json:"assignToName"`
	Strategy     string     `json:"strategy" validate:"required,oneof=payer age seniority"`
	RuleID       *uuid.UUID `json:"ruleId,omitempty"`
}

// Rejection is a claim the engine could not place.
type Rejection struct {
	ClaimID string `json:"claimId"`
	Reason  string `json:"reason"`
}

// ValidateResponse is the preview returned before execution.
type ValidateResponse struct {
	Assignable   []PlanEntry `json:"assignable"`
	Unassignable []Rejection `json:"unassignable"`
}

// ExecuteRequest submits reviewed plan entries.
type ExecuteRequest struct {
	Assignable []PlanEntry `json:"assignable" validate:"required,max=5000,dive"`
}

// CommitResult is the outcome for one submitted entry.
type CommitResult struct {
	ClaimID   string `json:"claimId"`
	Committed bool   `json:"committed"`
	Reason    string `json:"reason,omitempty"`
}

// ExecuteResponse reports per-claim outcomes.
type ExecuteResponse struct {
	PerClaim []CommitResult `json:"perClaim"`
	Message  string         `json:"message"`
}

// CapacityResetResponse reports whether counters were zeroed.
type CapacityResetResponse struct {
	Reset bool `json:"reset"`
}

// MemberUpdateRequest changes the status of an owned claim and/or appends a note.
type MemberUpdateRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=Assigned 'In Progress' 'On Hold' Submitted"`
	Note   *string `json:"note,omitempty" validate:"omitempty,notblank,max=2000"`
}
