package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
	"assignment_service/internal/lifecycle"
	"assignment_service/pkg/clock"
	"assignment_service/pkg/ctxdata"
	"assignment_service/pkg/logging"
)

type CreateAssignmentInput struct {
	AssigneeID  uuid.UUID
	WorkItemID  uuid.UUID
	Deadline    time.Time
	Description string
}

type SubmitWorkInput struct {
	AssignmentID uuid.UUID
	Remarks      string
	ArtifactRef  string
}

type ReviewInput struct {
	AssignmentID   uuid.UUID
	Decision       domain.ReviewDecision
	RemarksByAdmin string
}

// AssignmentService runs the lifecycle operations. It never keeps assignment
// state between calls: every decision is made on a fresh read and applied
// with a write conditioned on that read.
type AssignmentService struct {
	repo      AssignmentRepository
	directory Directory
	events    EventPublisher
	metrics   Metrics
	clock     clock.Clock
	schedule  lifecycle.Schedule
	logger    *logging.Logger
}

func NewAssignmentService(
	repo AssignmentRepository,
	directory Directory,
	events EventPublisher,
	metrics Metrics,
	clk clock.Clock,
	schedule lifecycle.Schedule,
	logger *logging.Logger,
) *AssignmentService {
	return &AssignmentService{
		repo:      repo,
		directory: directory,
		events:    events,
		metrics:   metrics,
		clock:     clk,
		schedule:  schedule,
		logger:    logger,
	}
}

func (s *AssignmentService) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (_ *domain.Assignment, err error) {
	defer s.observe(domain.OperationCreate, &err)

	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsSupervisor() {
		return nil, errdefs.PermissionDenied("only a supervisor can assign work")
	}

	if in.AssigneeID == uuid.Nil {
		return nil, errdefs.Validation("assignee id is required")
	}
	if in.WorkItemID == uuid.Nil {
		return nil, errdefs.Validation("work item id is required")
	}
	if in.Deadline.IsZero() {
		return nil, errdefs.Validation("invalid deadline")
	}

	now := s.clock.Now()
	if _, sweepErr := s.sweep(ctx, now); sweepErr != nil {
		s.logger.Warn(ctx, "sweep before create failed", zap.Error(sweepErr))
	}

	assignee, err := s.directory.GetUser(ctx, in.AssigneeID)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.NotFound("assignee")
		}
		return nil, s.internal(ctx, domain.OperationCreate, err)
	}
	switch assignee.Role {
	case domain.UserRoleAssignee:
	case domain.UserRoleSupervisor:
		return nil, errdefs.Validation("user %s holds the supervisor role and cannot be assigned work", assignee.ID)
	default:
		return nil, errdefs.Validation("user %s has unknown role %q", assignee.ID, assignee.Role)
	}

	if _, err = s.directory.GetWorkItem(ctx, in.WorkItemID); err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.NotFound("work item")
		}
		return nil, s.internal(ctx, domain.OperationCreate, err)
	}

	existing, err := s.repo.GetByPair(ctx, in.AssigneeID, in.WorkItemID)
	switch {
	case err == nil:
		return nil, conflict(existing.ID)
	case !errors.Is(err, errdefs.ErrNotFound):
		return nil, s.internal(ctx, domain.OperationCreate, err)
	}

	deadline := lifecycle.Date(in.Deadline)
	assignment := &domain.Assignment{
		AssigneeID:  in.AssigneeID,
		WorkItemID:  in.WorkItemID,
		Deadline:    deadline,
		Status:      lifecycle.InitialStatus(s.schedule, deadline, now),
		Description: strings.TrimSpace(in.Description),
		AssignedBy:  actor.ID,
		CreatedAt:   now,
		EditedAt:    now,
	}

	if err = s.repo.Create(ctx, assignment); err != nil {
		if errors.Is(err, errdefs.ErrAlreadyExists) {
			return nil, conflict(uuid.Nil)
		}
		return nil, s.internal(ctx, domain.OperationCreate, err)
	}

	s.applied(ctx, assignment, domain.OperationCreate, "")
	return assignment, nil
}

// SweepOverdue marks every IN_PROGRESS assignment that is overdue at now as
// INCOMPLETE: deadlines up to today once the cutoff has passed, up to
// yesterday before it. Earlier days are included so that a sweep missed
// during an outage is caught up. It returns how many assignments moved.
func (s *AssignmentService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()

	moved, err := s.sweep(ctx, now)
	if err != nil {
		s.metrics.OperationFailed(domain.OperationSweep, errorKind(err))
		return 0, s.internal(ctx, domain.OperationSweep, err)
	}

	s.metrics.SweepCompleted(moved, time.Since(start))
	return moved, nil
}

func (s *AssignmentService) sweep(ctx context.Context, now time.Time) (int, error) {
	from := domain.AssignmentStatusInProgress
	to, err := lifecycle.Sweep(from)
	if err != nil {
		return 0, err
	}

	moved, err := s.repo.UpdateStatusByDeadline(ctx, from, to, s.schedule.LastOverdueDate(now), now)
	if err != nil {
		return 0, err
	}

	for _, a := range moved {
		s.applied(ctx, a, domain.OperationSweep, from)
	}
	if len(moved) > 0 {
		s.logger.Info(ctx, "overdue assignments swept", zap.Int("count", len(moved)))
	}
	return len(moved), nil
}

func (s *AssignmentService) SubmitWork(ctx context.Context, in SubmitWorkInput) (_ *domain.Assignment, err error) {
	defer s.observe(domain.OperationSubmit, &err)

	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if in.AssignmentID == uuid.Nil {
		return nil, errdefs.Validation("assignment id is required")
	}

	current, err := s.getAssignment(ctx, in.AssignmentID, domain.OperationSubmit)
	if err != nil {
		return nil, err
	}

	next, write, err := lifecycle.Submit(current.Status)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.UserRoleAssignee:
		if actor.ID != current.AssigneeID {
			return nil, errdefs.PermissionDenied("assignment belongs to another user")
		}
	case domain.UserRoleSupervisor:
		return nil, errdefs.PermissionDenied("only the assignee can submit work")
	}

	remarks := strings.TrimSpace(in.Remarks)
	artifactRef := strings.TrimSpace(in.ArtifactRef)
	if remarks == "" {
		return nil, errdefs.Validation("remarks are required")
	}
	if artifactRef == "" {
		return nil, errdefs.Validation("artifact reference is required")
	}

	change := domain.SubmissionChange{
		StatusChange: domain.StatusChange{
			AssignmentID: current.ID,
			From:         current.Status,
			To:           next,
			At:           s.clock.Now(),
		},
		Write:       write,
		Remarks:     remarks,
		ArtifactRef: artifactRef,
	}

	updated, _, err := s.repo.ApplySubmission(ctx, change)
	if err != nil {
		return nil, s.writeFailed(ctx, current.ID, domain.OperationSubmit, err)
	}

	s.applied(ctx, updated, domain.OperationSubmit, current.Status)
	return updated, nil
}

func (s *AssignmentService) ReviewSubmission(ctx context.Context, in ReviewInput) (_ *domain.Assignment, err error) {
	defer s.observe(domain.OperationReview, &err)

	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Decision.IsValid() {
		return nil, errdefs.Validation("decision must be %s or %s, got %q",
			domain.ReviewDecisionApproved, domain.ReviewDecisionRejected, in.Decision)
	}
	if in.AssignmentID == uuid.Nil {
		return nil, errdefs.Validation("assignment id is required")
	}

	current, err := s.getAssignment(ctx, in.AssignmentID, domain.OperationReview)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Review(current.Status, in.Decision)
	if err != nil {
		return nil, err
	}

	if !actor.IsSupervisor() {
		return nil, errdefs.PermissionDenied("only a supervisor can review submissions")
	}

	change := domain.ReviewChange{
		StatusChange: domain.StatusChange{
			AssignmentID: current.ID,
			From:         current.Status,
			To:           next,
			At:           s.clock.Now(),
		},
		RemarksByAdmin: strings.TrimSpace(in.RemarksByAdmin),
	}

	updated, err := s.repo.ApplyReview(ctx, change)
	if err != nil {
		return nil, s.writeFailed(ctx, current.ID, domain.OperationReview, err)
	}

	s.applied(ctx, updated, domain.OperationReview, current.Status)
	return updated, nil
}

// GetSubmission returns the live submission of an assignment. Assignees can
// only read their own.
func (s *AssignmentService) GetSubmission(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error) {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, assignmentID, domain.OperationSubmit)
	if err != nil {
		return nil, err
	}
	if !actor.IsSupervisor() && actor.ID != assignment.AssigneeID {
		return nil, errdefs.PermissionDenied("assignment belongs to another user")
	}

	submission, err := s.repo.GetSubmission(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.NotFound("submission")
		}
		return nil, s.internal(ctx, domain.OperationSubmit, err)
	}
	return submission, nil
}

func (s *AssignmentService) getAssignment(ctx context.Context, id uuid.UUID, op domain.Operation) (*domain.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.NotFound("assignment")
		}
		return nil, s.internal(ctx, op, err)
	}
	return assignment, nil
}

// writeFailed turns a lost conditional write into a transition error that
// names the status the winner left behind.
func (s *AssignmentService) writeFailed(ctx context.Context, id uuid.UUID, op domain.Operation, err error) error {
	if !errors.Is(err, errdefs.ErrStaleStatus) {
		return s.internal(ctx, op, err)
	}

	latest, getErr := s.getAssignment(ctx, id, op)
	if getErr != nil {
		return getErr
	}
	s.logger.Info(ctx, "conditional write lost a race",
		zap.String("assignment_id", id.String()),
		zap.String("operation", string(op)),
		zap.String("status", latest.Status.String()),
	)
	return errdefs.NewTransitionNotAllowed(latest.Status, op)
}

func (s *AssignmentService) applied(ctx context.Context, a *domain.Assignment, op domain.Operation, from domain.AssignmentStatus) {
	s.metrics.TransitionApplied(op, a.Status)

	if err := s.events.PublishStatusChanged(ctx, domain.NewStatusEvent(a, op, from)); err != nil {
		s.logger.Warn(ctx, "failed to publish status change",
			zap.String("assignment_id", a.ID.String()),
			zap.String("status", a.Status.String()),
			zap.Error(err),
		)
	}
}

func (s *AssignmentService) internal(ctx context.Context, op domain.Operation, err error) error {
	s.logger.Error(ctx, "assignment operation failed",
		zap.String("operation", string(op)),
		zap.Error(err),
	)
	return errdefs.Internal(err)
}

func (s *AssignmentService) observe(op domain.Operation, err *error) {
	if *err != nil {
		s.metrics.OperationFailed(op, errorKind(*err))
	}
}

// ActorFromContext reads the caller identity placed in ctx by the transport
// layer.
func ActorFromContext(ctx context.Context) (domain.Actor, error) {
	rawID, ok := ctxdata.GetUserID(ctx)
	if !ok {
		return domain.Actor{}, errdefs.PermissionDenied("caller identity is missing")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Actor{}, errdefs.PermissionDenied("caller id is malformed")
	}

	rawRole, _ := ctxdata.GetUserRole(ctx)
	role, ok := domain.ParseUserRole(rawRole)
	if !ok {
		return domain.Actor{}, errdefs.PermissionDenied("caller role is unknown")
	}
	return domain.Actor{ID: id, Role: role}, nil
}

func conflict(existing uuid.UUID) error {
	if existing == uuid.Nil {
		return errdefs.Conflict("assignment for this assignee and work item already exists")
	}
	return errdefs.Conflict("assignment %s already exists for this assignee and work item", existing)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, errdefs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errdefs.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, errdefs.ErrValidation):
		return "validation"
	case errors.Is(err, errdefs.ErrTransitionNotAllowed):
		return "transition_not_allowed"
	default:
		return "internal"
	}
}
