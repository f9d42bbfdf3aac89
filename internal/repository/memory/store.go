// Package memory is an in-process assignment store with the same conditional
// write semantics as the Postgres repository. It backs local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
)

type pairKey struct {
	assignee uuid.UUID
	workItem uuid.UUID
}

// Store keeps every record behind one mutex so that each method is a single
// atomic unit, like a transaction in the SQL store.
type Store struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]domain.Assignment
	pairs       map[pairKey]uuid.UUID
	submissions map[uuid.UUID]domain.Submission
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[uuid.UUID]domain.Assignment),
		pairs:       make(map[pairKey]uuid.UUID),
		submissions: make(map[uuid.UUID]domain.Submission),
	}
}

func (s *Store) Create(_ context.Context, assignment *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{assignment.AssigneeID, assignment.WorkItemID}
	if _, ok := s.pairs[key]; ok {
		return errdefs.ErrAlreadyExists
	}

	if assignment.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID: %w", err)
		}
		assignment.ID = id
	}
	if _, ok := s.assignments[assignment.ID]; ok {
		return errdefs.ErrAlreadyExists
	}

	s.assignments[assignment.ID] = clone(*assignment)
	s.pairs[key] = assignment.ID
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return ptr(a), nil
}

func (s *Store) GetByPair(_ context.Context, assigneeID, workItemID uuid.UUID) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.pairs[pairKey{assigneeID, workItemID}]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return ptr(s.assignments[id]), nil
}

func (s *Store) ListByFilter(_ context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[domain.AssignmentStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = true
	}

	var out []*domain.Assignment
	for _, a := range s.assignments {
		if filter.AssigneeID != uuid.Nil && a.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.AssignedBy != uuid.Nil && a.AssignedBy != filter.AssignedBy {
			continue
		}
		if len(statuses) > 0 && !statuses[a.Status] {
			continue
		}
		out = append(out, ptr(a))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) UpdateStatusByDeadline(
	_ context.Context,
	from, to domain.AssignmentStatus,
	deadline time.Time,
	at time.Time,
) ([]*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved []*domain.Assignment
	for id, a := range s.assignments {
		if a.Status != from || a.Deadline.After(deadline) {
			continue
		}
		a.Status = to
		a.EditedAt = at
		s.assignments[id] = a
		moved = append(moved, ptr(a))
	}
	return moved, nil
}

func (s *Store) ApplySubmission(_ context.Context, change domain.SubmissionChange) (*domain.Assignment, *domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[change.AssignmentID]
	if !ok || a.Status != change.From {
		return nil, nil, errdefs.ErrStaleStatus
	}

	sub, exists := s.submissions[change.AssignmentID]
	switch change.Write {
	case domain.SubmissionCreate:
		if exists {
			return nil, nil, fmt.Errorf("repository error: submission for %s: %w", change.AssignmentID, errdefs.ErrAlreadyExists)
		}
		sub = newSubmission(change)
	case domain.SubmissionUpsert:
		if !exists {
			sub = newSubmission(change)
			break
		}
		sub.SubmittedAt = change.At
		sub.Remarks = change.Remarks
		sub.ArtifactRef = change.ArtifactRef
		sub.EditedAt = change.At
	default:
		return nil, nil, fmt.Errorf("unknown submission write mode %d", change.Write)
	}
	if sub.ID == uuid.Nil {
		return nil, nil, fmt.Errorf("failed to generate UUID")
	}

	a.Status = change.To
	a.EditedAt = change.At
	s.assignments[a.ID] = a
	s.submissions[a.ID] = sub

	return ptr(a), &sub, nil
}

func (s *Store) ApplyReview(_ context.Context, change domain.ReviewChange) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[change.AssignmentID]
	if !ok || a.Status != change.From {
		return nil, errdefs.ErrStaleStatus
	}

	remarks := change.RemarksByAdmin
	a.Status = change.To
	a.RemarksByAdmin = &remarks
	a.EditedAt = change.At
	s.assignments[a.ID] = a
	return ptr(a), nil
}

func (s *Store) GetSubmission(_ context.Context, assignmentID uuid.UUID) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[assignmentID]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return &sub, nil
}

func newSubmission(change domain.SubmissionChange) domain.Submission {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Submission{}
	}
	return domain.Submission{
		ID:           id,
		AssignmentID: change.AssignmentID,
		SubmittedAt:  change.At,
		Remarks:      change.Remarks,
		ArtifactRef:  change.ArtifactRef,
		CreatedAt:    change.At,
		EditedAt:     change.At,
	}
}

func clone(a domain.Assignment) domain.Assignment {
	if a.RemarksByAdmin != nil {
		r := *a.RemarksByAdmin
		a.RemarksByAdmin = &r
	}
	return a
}

func ptr(a domain.Assignment) *domain.Assignment {
	c := clone(a)
	return &c
}
