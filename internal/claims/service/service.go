package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/claims/repository"
	"claims_portal_backend/internal/claims/transport"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	unassignedName       = "Unassigned"
	reasonUnknownClaim   = "invalid claim: unknown claim id"
	reasonAlreadyStored  = "claim already exists"
	capacitySourceAPI    = "api"
	msgNothingToUpdate   = "status or note is required"
	msgInvalidDate       = "invalid date"
	msgAssignmentFailure = "assignment failed"
)

// Service orchestrates claim intake, assignment and member updates.
type Service struct {
	repo     repository.Repository
	roster   AgentRoster
	rules    RuleSource
	engine   AssignmentEngine
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
	loc      *time.Location
}

// New creates a new claims service.
func New(repo repository.Repository, roster AgentRoster, rules RuleSource, engine AssignmentEngine, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		roster:   roster,
		rules:    rules,
		engine:   engine,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
		loc:      time.UTC,
	}
}

// SetCapacityLocation sets the zone whose calendar day names capacity resets.
func (s *Service) SetCapacityLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// Intake stores a batch of normalized claim records. Duplicates, inside the
// batch or against stored claims, are reported per record.
func (s *Service) Intake(ctx context.Context, req transport.BatchIntakeRequest) (transport.BatchIntakeResponse, error) {
	results := make([]transport.IntakeResult, len(req.Claims))
	params := make([]repository.CreateParams, 0, len(req.Claims))
	positions := make([]int, 0, len(req.Claims))
	seen := make(map[string]struct{}, len(req.Claims))

	for i, rec := range req.Claims {
		claimID := strings.TrimSpace(rec.ClaimID)
		results[i] = transport.IntakeResult{ClaimID: claimID}
		if _, dup := seen[claimID]; dup {
			results[i].Reason = assignment.ReasonDuplicateInBatch
			continue
		}
		seen[claimID] = struct{}{}

		p, err := toCreateParams(rec)
		if err != nil {
			results[i].Reason = "invalid claim: " + err.Error()
			continue
		}
		params = append(params, p)
		positions = append(positions, i)
	}

	inserted, err := s.repo.InsertBatch(ctx, params)
	if err != nil {
		return transport.BatchIntakeResponse{}, err
	}

	resp := transport.BatchIntakeResponse{Results: results}
	for j, res := range inserted {
		i := positions[j]
		if res.Inserted {
			results[i].Created = true
			resp.Created++
			continue
		}
		results[i].Reason = reasonAlreadyStored
	}

	s.log.Info("claims received", "submitted", len(req.Claims), "created", resp.Created)
	return resp, nil
}

// List returns every claim with its assignee name.
func (s *Service) List(ctx context.Context) (transport.ClaimListResponse, error) {
	claims, err := s.repo.ListAll(ctx)
	if err != nil {
		return transport.ClaimListResponse{}, err
	}
	return toListResponse(claims), nil
}

// Validate previews assignments for the selected claims without changing state.
func (s *Service) Validate(ctx context.Context, req transport.ValidateRequest) (transport.ValidateResponse, error) {
	requested := trimAll(req.ClaimIDs)

	stored, err := s.repo.ListForPlanning(ctx, requested)
	if err != nil {
		return transport.ValidateResponse{}, err
	}
	claims, unknown := orderForPlanning(stored, requested)

	agents, err := s.roster.AssignmentAgents(ctx)
	if err != nil {
		return transport.ValidateResponse{}, err
	}
	rules, err := s.rules.AssignmentRules(ctx)
	if err != nil {
		return transport.ValidateResponse{}, err
	}

	plan, err := s.engine.Validate(ctx, claims, agents, rules)
	if err != nil {
		return transport.ValidateResponse{}, s.engineError("validate", err)
	}

	resp := toValidateResponse(plan)
	for _, claimID := range unknown {
		resp.Unassignable = append(resp.Unassignable, transport.Rejection{ClaimID: claimID, Reason: reasonUnknownClaim})
	}

	s.log.WithContext(ctx).AssignmentPlanned(len(claims)+len(unknown), len(resp.Assignable), len(resp.Unassignable))
	return resp, nil
}

// Execute commits reviewed plan entries one by one against live state.
func (s *Service) Execute(ctx context.Context, actorID uuid.UUID, req transport.ExecuteRequest) (transport.ExecuteResponse, error) {
	entries := make([]assignment.PlanEntry, 0, len(req.Assignable))
	for _, e := range req.Assignable {
		strategy, err := assignment.ParseStrategy(e.Strategy)
		if err != nil {
			return transport.ExecuteResponse{}, apperr.Validation(err.Error())
		}
		entries = append(entries, assignment.PlanEntry{
			ClaimID:      strings.TrimSpace(e.ClaimID),
			AssignTo:     e.AssignTo,
			AssignToName: e.AssignToName,
			Strategy:     strategy,
			RuleID:       e.RuleID,
		})
	}

	result, err := s.engine.Execute(ctx, entries)
	if err != nil {
		return transport.ExecuteResponse{}, s.engineError("execute", err)
	}

	committed := result.CommittedCount()
	s.log.WithContext(ctx).AssignmentCommitted(len(entries), committed)

	resp := transport.ExecuteResponse{PerClaim: make([]transport.CommitResult, 0, len(result.PerClaim)), Message: result.Message}
	committedIDs := make([]string, 0, committed)
	for _, r := range result.PerClaim {
		resp.PerClaim = append(resp.PerClaim, transport.CommitResult{ClaimID: r.ClaimID, Committed: r.Committed, Reason: r.Reason})
		if r.Committed {
			committedIDs = append(committedIDs, r.ClaimID)
		}
	}

	if committed > 0 && s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ClaimsAssigned{
			BaseEvent: events.NewBaseEvent(),
			ActorID:   actorID,
			ClaimIDs:  committedIDs,
			Submitted: len(entries),
		})
	}
	return resp, nil
}

// ResetCapacity rolls daily counters over when the calendar day changed.
func (s *Service) ResetCapacity(ctx context.Context) (transport.CapacityResetResponse, error) {
	reset, err := s.engine.ResetIfNewDay(ctx)
	if err != nil {
		return transport.CapacityResetResponse{}, err
	}
	s.log.WithContext(ctx).CapacityReset(capacitySourceAPI, reset)
	if reset && s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CapacityReset{
			BaseEvent: events.NewBaseEvent(),
			Day:       assignment.DayKey(s.now(), s.loc),
			Source:    capacitySourceAPI,
		})
	}
	return transport.CapacityResetResponse{Reset: reset}, nil
}

// MemberClaims returns the claims assigned to agentID with their notes.
func (s *Service) MemberClaims(ctx context.Context, agentID uuid.UUID) (transport.ClaimListResponse, error) {
	claims, err := s.repo.ListByAssignee(ctx, agentID)
	if err != nil {
		return transport.ClaimListResponse{}, err
	}
	return toListResponse(claims), nil
}

// UpdateMemberClaim changes the status of a claim the agent owns and/or appends a note.
func (s *Service) UpdateMemberClaim(ctx context.Context, agentID, claimID uuid.UUID, req transport.MemberUpdateRequest) (transport.ClaimResponse, error) {
	var note *string
	if req.Note != nil {
		trimmed := strings.TrimSpace(*req.Note)
		note = &trimmed
	}
	if req.Status == nil && note == nil {
		return transport.ClaimResponse{}, apperr.Validation(msgNothingToUpdate)
	}

	claim, err := s.repo.UpdateByAssignee(ctx, repository.MemberUpdateParams{
		ID:       claimID,
		AgentID:  agentID,
		Status:   req.Status,
		Note:     note,
		NoteTime: s.now().UTC(),
	})
	if err != nil {
		return transport.ClaimResponse{}, err
	}

	s.log.Info("claim updated by assignee", "id", claim.ID, "claimId", claim.ClaimID, "status", claim.Status, "noteAdded", note != nil)
	return toResponse(claim), nil
}

// engineError hides engine failures behind an internal error; counter
// invariant violations are logged at error level.
func (s *Service) engineError(op string, err error) error {
	if assignment.IsInvariantViolation(err) {
		s.log.Error("capacity invariant violated", "op", op, "error", err)
	} else {
		s.log.Error("assignment engine failed", "op", op, "error", err)
	}
	return apperr.Wrap(apperr.KindInternal, msgAssignmentFailure, err).WithOp("claims." + op)
}

// orderForPlanning returns stored claims in request order, plus requested ids
// that do not exist. Without a request the stored order is kept.
func orderForPlanning(stored []repository.Claim, requested []string) ([]assignment.Claim, []string) {
	if len(requested) == 0 {
		out := make([]assignment.Claim, 0, len(stored))
		for _, c := range stored {
			out = append(out, toAssignmentClaim(c))
		}
		return out, nil
	}

	byID := make(map[string]repository.Claim, len(stored))
	for _, c := range stored {
		byID[c.ClaimID] = c
	}
	out := make([]assignment.Claim, 0, len(requested))
	unknown := make([]string, 0)
	for _, id := range requested {
		c, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		// repeated ids reach the planner, which reports them as duplicates
		out = append(out, toAssignmentClaim(c))
	}
	return out, unknown
}

func toAssignmentClaim(c repository.Claim) assignment.Claim {
	out := assignment.Claim{
		ClaimID:       c.ClaimID,
		Payer:         c.Payer,
		Amount:        c.AmountCents,
		DateOfService: c.DateOfService,
		Status:        c.Status,
		CPTCodes:      c.CPTCodes,
		ICD10Codes:    c.ICD10Codes,
		AssigneeID:    c.AssignedToID,
	}
	if c.RequiredSkill != nil {
		out.RequiredSkill = strings.TrimSpace(*c.RequiredSkill)
	}
	return out
}

func toCreateParams(rec transport.ClaimRecord) (repository.CreateParams, error) {
	dos, err := time.Parse(time.DateOnly, rec.DateOfService)
	if err != nil {
		return repository.CreateParams{}, fmt.Errorf("%s: dateOfService", msgInvalidDate)
	}
	dob, err := parseOptionalDate(rec.DateOfBirth)
	if err != nil {
		return repository.CreateParams{}, fmt.Errorf("%s: dateOfBirth", msgInvalidDate)
	}
	deadline, err := parseOptionalDate(rec.SubmissionDeadline)
	if err != nil {
		return repository.CreateParams{}, fmt.Errorf("%s: submissionDeadline", msgInvalidDate)
	}

	return repository.CreateParams{
		ClaimID:            strings.TrimSpace(rec.ClaimID),
		Payer:              strings.TrimSpace(rec.Payer),
		AmountCents:        rec.AmountCents,
		DateOfService:      dos,
		RequiredSkill:      trimOptional(rec.RequiredSkill),
		PatientID:          trimOptional(rec.PatientID),
		PatientName:        trimOptional(rec.PatientName),
		DateOfBirth:        dob,
		CPTCodes:           trimAll(rec.CPTCodes),
		ICD10Codes:         trimAll(rec.ICD10Codes),
		SubmissionDeadline: deadline,
		Priority:           rec.Priority,
	}, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
