package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
	"assignment_service/pkg/logging"
)

// QueryService lists stored assignments. It never writes. An unknown id or a
// filter that matches nothing is reported as errdefs.ErrNotFound.
type QueryService struct {
	repo   AssignmentRepository
	logger *logging.Logger
}

func NewQueryService(repo AssignmentRepository, logger *logging.Logger) *QueryService {
	return &QueryService{repo: repo, logger: logger}
}

func (s *QueryService) GetAssignment(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	if id == uuid.Nil {
		return nil, errdefs.Validation("assignment id is required")
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.NotFound("assignment")
		}
		return nil, s.internal(ctx, err)
	}
	return assignment, nil
}

func (s *QueryService) ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]*domain.Assignment, error) {
	if assigneeID == uuid.Nil {
		return nil, errdefs.Validation("assignee id is required")
	}
	return s.List(ctx, domain.AssignmentFilter{AssigneeID: assigneeID})
}

func (s *QueryService) ListByStatus(ctx context.Context, status domain.AssignmentStatus) ([]*domain.Assignment, error) {
	return s.List(ctx, domain.AssignmentFilter{Statuses: []domain.AssignmentStatus{status}})
}

func (s *QueryService) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID) ([]*domain.Assignment, error) {
	if supervisorID == uuid.Nil {
		return nil, errdefs.Validation("supervisor id is required")
	}
	return s.List(ctx, domain.AssignmentFilter{AssignedBy: supervisorID})
}

// List returns the assignments matching every non-zero field of filter,
// ordered by deadline.
func (s *QueryService) List(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, error) {
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return nil, errdefs.Validation("unknown status %q", status)
		}
	}

	assignments, err := s.repo.ListByFilter(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, err)
	}
	if len(assignments) == 0 {
		return nil, errdefs.NotFound("assignments")
	}
	return assignments, nil
}

func (s *QueryService) internal(ctx context.Context, err error) error {
	s.logger.Error(ctx, "assignment query failed", zap.Error(err))
	return errdefs.Internal(err)
}
