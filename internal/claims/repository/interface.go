package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Note is an append-only remark on a claim.
type Note struct {
	ID         uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// Claim is a persisted billing claim.
type Claim struct {
	ID                 uuid.UUID
	ClaimID            string
	Payer              string
	AmountCents        int64
	DateOfService      time.Time
	Status             string
	RequiredSkill      *string
	PatientID          *string
	PatientName        *string
	DateOfBirth        *time.Time
	CPTCodes           []string
	ICD10Codes         []string
	SubmissionDeadline *time.Time
	Priority           int
	AssignedToID       *uuid.UUID
	AssignedToName     *string
	AssignedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Notes              []Note
}

// CreateParams is one normalized claim record from the intake pipeline.
type CreateParams struct {
	ClaimID            string
	Payer              string
	AmountCents        int64
	DateOfService      time.Time
	RequiredSkill      *string
	PatientID          *string
	PatientName        *string
	DateOfBirth        *time.Time
	CPTCodes           []string
	ICD10Codes         []string
	SubmissionDeadline *time.Time
	Priority           int
}

// InsertResult reports whether one record of a batch was stored.
type InsertResult struct {
	ClaimID  string
	ID       uuid.UUID
	Inserted bool
}

// MemberUpdateParams changes a claim on behalf of its assignee.
type MemberUpdateParams struct {
	ID       uuid.UUID
	AgentID  uuid.UUID
	Status   *string
	Note     *string
	NoteTime time.Time
}

// ClaimReader provides read operations for claims.
type ClaimReader interface {
	// ListAll returns every claim ordered by claim id descending.
	ListAll(ctx context.Context) ([]Claim, error)
	// ListForPlanning returns the claims with the given business ids, or every
	// unassigned claim when claimIDs is empty.
	ListForPlanning(ctx context.Context, claimIDs []string) ([]Claim, error)
	// ListByAssignee returns an agent's claims with notes, ordered by status and claim id.
	ListByAssignee(ctx context.Context, agentID uuid.UUID) ([]Claim, error)
}

// ClaimWriter provides write operations for claims.
type ClaimWriter interface {
	InsertBatch(ctx context.Context, records []CreateParams) ([]InsertResult, error)
	UpdateByAssignee(ctx context.Context, params MemberUpdateParams) (Claim, error)
}

// Repository combines all claim repository operations.
type Repository interface {
	ClaimReader
	ClaimWriter
}
