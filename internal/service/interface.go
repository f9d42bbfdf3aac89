package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"assignment_service/internal/domain"
)

//go:generate mockgen -source=interface.go -destination=mocks/mocks.go -package=mocks

// AssignmentRepository is the store contract the engine relies on. Every
// status write is conditional on the expected current status and reports
// errdefs.ErrStaleStatus when that no longer holds.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	GetByPair(ctx context.Context, assigneeID, workItemID uuid.UUID) (*domain.Assignment, error)
	ListByFilter(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, error)
	// UpdateStatusByDeadline moves assignments in from and due on or before
	// deadline to to, and returns the moved rows.
	UpdateStatusByDeadline(ctx context.Context, from, to domain.AssignmentStatus, deadline, at time.Time) ([]*domain.Assignment, error)
	ApplySubmission(ctx context.Context, change domain.SubmissionChange) (*domain.Assignment, *domain.Submission, error)
	ApplyReview(ctx context.Context, change domain.ReviewChange) (*domain.Assignment, error)
	GetSubmission(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error)
}

// Directory resolves users and work items owned by other services.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error)
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event domain.StatusEvent) error
}

type Metrics interface {
	TransitionApplied(op domain.Operation, to domain.AssignmentStatus)
	OperationFailed(op domain.Operation, kind string)
	SweepCompleted(moved int, duration time.Duration)
}
