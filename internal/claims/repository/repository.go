package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"claims_portal_backend/platform/apperr"
)

const claimNotFoundMessage = "claim not found"

const claimSelect = `
	SELECT c.id, c.claim_id, c.payer, c.amount_cents, c.date_of_service, c.status, c.required_skill,
		c.patient_id, c.patient_name, c.date_of_birth, c.cpt_codes, c.icd10_codes, c.submission_deadline,
		c.priority, c.assigned_to_id, a.name, c.assigned_at, c.created_at, c.updated_at
	FROM claims c
	LEFT JOIN agents a ON a.id = c.assigned_to_id`

const (
	listAllClaimsQuery     = claimSelect + ` ORDER BY c.claim_id DESC`
	listUnassignedQuery    = claimSelect + ` WHERE c.assigned_to_id IS NULL ORDER BY c.created_at ASC, c.claim_id ASC`
	listByClaimIDsQuery    = claimSelect + ` WHERE c.claim_id = ANY($1::text[])`
	listByAssigneeQuery    = claimSelect + ` WHERE c.assigned_to_id = $1 ORDER BY c.status ASC, c.claim_id ASC`
	getClaimByIDQuery      = claimSelect + ` WHERE c.id = $1`
	lockOwnedClaimQuery    = `SELECT id FROM claims WHERE id = $1 AND assigned_to_id = $2 FOR UPDATE`
	updateClaimStatusQuery = `UPDATE claims SET status = $2, updated_at = now() WHERE id = $1`
	insertNoteQuery        = `INSERT INTO claim_notes (claim_id, author_id, content, created_at) VALUES ($1, $2, $3, $4)`

	insertClaimQuery = `
		INSERT INTO claims (
			claim_id, payer, amount_cents, date_of_service, required_skill, patient_id, patient_name,
			date_of_birth, cpt_codes, icd10_codes, submission_deadline, priority
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9::text[], '{}'), COALESCE($10::text[], '{}'), $11, $12)
		ON CONFLICT (claim_id) DO NOTHING
		RETURNING id`

	listNotesQuery = `
		SELECT n.claim_id, n.id, n.author_id, COALESCE(a.name, ''), n.content, n.created_at
		FROM claim_notes n
		LEFT JOIN agents a ON a.id = n.author_id
		WHERE n.claim_id::text = ANY($1::text[])
		ORDER BY n.created_at ASC, n.id ASC`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new claims repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListAll returns every claim ordered by claim id descending.
func (r *Repo) ListAll(ctx context.Context) ([]Claim, error) {
	return r.queryClaims(ctx, "list claims", listAllClaimsQuery)
}

// ListForPlanning returns the requested claims, or every unassigned claim.
func (r *Repo) ListForPlanning(ctx context.Context, claimIDs []string) ([]Claim, error) {
	if len(claimIDs) == 0 {
		return r.queryClaims(ctx, "list unassigned claims", listUnassignedQuery)
	}
	return r.queryClaims(ctx, "list claims by id", listByClaimIDsQuery, claimIDs)
}

// ListByAssignee returns an agent's claims with their notes.
func (r *Repo) ListByAssignee(ctx context.Context, agentID uuid.UUID) ([]Claim, error) {
	claims, err := r.queryClaims(ctx, "list claims by assignee", listByAssigneeQuery, agentID)
	if err != nil {
		return nil, err
	}
	if err := r.attachNotes(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// InsertBatch stores claim records in one round trip. Records whose claim id
// already exists, in the table or earlier in the same batch, are skipped.
func (r *Repo) InsertBatch(ctx context.Context, records []CreateParams) ([]InsertResult, error) {
	if len(records) == 0 {
		return []InsertResult{}, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin insert claims: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertClaimQuery,
			rec.ClaimID, rec.Payer, rec.AmountCents, rec.DateOfService, rec.RequiredSkill, rec.PatientID,
			rec.PatientName, rec.DateOfBirth, rec.CPTCodes, rec.ICD10Codes, rec.SubmissionDeadline, rec.Priority,
		)
	}

	results := make([]InsertResult, 0, len(records))
	br := tx.SendBatch(ctx, batch)
	for _, rec := range records {
		result := InsertResult{ClaimID: rec.ClaimID}
		err := br.QueryRow().Scan(&result.ID)
		switch {
		case err == nil:
			result.Inserted = true
		case errors.Is(err, pgx.ErrNoRows):
		default:
			_ = br.Close()
			return nil, fmt.Errorf("insert claim %s: %w", rec.ClaimID, err)
		}
		results = append(results, result)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close claim batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert claims: %w", err)
	}
	return results, nil
}

// UpdateByAssignee changes the status and/or appends a note on a claim owned by the agent.
func (r *Repo) UpdateByAssignee(ctx context.Context, params MemberUpdateParams) (Claim, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Claim{}, fmt.Errorf("begin update claim: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	if err := tx.QueryRow(ctx, lockOwnedClaimQuery, params.ID, params.AgentID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, apperr.NotFound(claimNotFoundMessage)
		}
		return Claim{}, fmt.Errorf("lock claim: %w", err)
	}

	if params.Status != nil {
		if _, err := tx.Exec(ctx, updateClaimStatusQuery, id, *params.Status); err != nil {
			return Claim{}, fmt.Errorf("update claim status: %w", err)
		}
	}
	if params.Note != nil {
		if _, err := tx.Exec(ctx, insertNoteQuery, id, params.AgentID, *params.Note, params.NoteTime); err != nil {
			return Claim{}, fmt.Errorf("insert claim note: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Claim{}, fmt.Errorf("commit update claim: %w", err)
	}

	claim, err := scanClaim(r.pool.QueryRow(ctx, getClaimByIDQuery, id))
	if err != nil {
		return Claim{}, fmt.Errorf("reload claim: %w", err)
	}
	claims := []Claim{claim}
	if err := r.attachNotes(ctx, claims); err != nil {
		return Claim{}, err
	}
	return claims[0], nil
}

func (r *Repo) queryClaims(ctx context.Context, op, query string, args ...any) ([]Claim, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	claims := make([]Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

func (r *Repo) attachNotes(ctx context.Context, claims []Claim) error {
	if len(claims) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(claims))
	ids := make([]string, len(claims))
	for i, c := range claims {
		index[c.ID] = i
		ids[i] = c.ID.String()
		claims[i].Notes = make([]Note, 0)
	}

	rows, err := r.pool.Query(ctx, listNotesQuery, ids)
	if err != nil {
		return fmt.Errorf("list claim notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			claimID uuid.UUID
			n       Note
		)
		if err := rows.Scan(&claimID, &n.ID, &n.AuthorID, &n.AuthorName, &n.Content, &n.CreatedAt); err != nil {
			return fmt.Errorf("scan claim note: %w", err)
		}
		if i, ok := index[claimID]; ok {
			claims[i].Notes = append(claims[i].Notes, n)
		}
	}
	return rows.Err()
}

func scanClaim(row pgx.Row) (Claim, error) {
	var c Claim
	err := row.Scan(
		&c.ID, &c.ClaimID, &c.Payer, &c.AmountCents, &c.DateOfService, &c.Status, &c.RequiredSkill,
		&c.PatientID, &c.PatientName, &c.DateOfBirth, &c.CPTCodes, &c.ICD10Codes, &c.SubmissionDeadline,
		&c.Priority, &c.AssignedToID, &c.AssignedToName, &c.AssignedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
