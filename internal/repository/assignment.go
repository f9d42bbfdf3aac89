package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
)

const assignmentColumns = `id, assignee_id, work_item_id, deadline, status, description, assigned_by, remarks_by_admin, created_at, edited_at`

const submissionColumns = `id, assignment_id, submitted_at, remarks, artifact_ref, created_at, edited_at`

// DB is the part of pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AssignmentRepository struct {
	db DB
}

func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	query := `
INSERT INTO assignments (
	id, assignee_id, work_item_id, deadline, status, description,
	assigned_by, remarks_by_admin, created_at, edited_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + assignmentColumns

	if assignment.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID: %w", err)
		}
		assignment.ID = id
	}

	err := pgxscan.Get(ctx, r.db, assignment, query,
		assignment.ID,
		assignment.AssigneeID,
		assignment.WorkItemID,
		assignment.Deadline,
		assignment.Status,
		assignment.Description,
		assignment.AssignedBy,
		assignment.RemarksByAdmin,
		assignment.CreatedAt,
		assignment.EditedAt,
	)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	var assignment domain.Assignment
	if err := pgxscan.Get(ctx, r.db, &assignment, query, id); err != nil {
		return nil, handleError(err)
	}
	return &assignment, nil
}

func (r *AssignmentRepository) GetByPair(ctx context.Context, assigneeID, workItemID uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE assignee_id = $1 AND work_item_id = $2`

	var assignment domain.Assignment
	if err := pgxscan.Get(ctx, r.db, &assignment, query, assigneeID, workItemID); err != nil {
		return nil, handleError(err)
	}
	return &assignment, nil
}

func (r *AssignmentRepository) ListByFilter(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, error) {
	query, args := buildListQuery(filter)

	var assignments []*domain.Assignment
	if err := pgxscan.Select(ctx, r.db, &assignments, query, args...); err != nil {
		return nil, handleError(err)
	}
	return assignments, nil
}

// UpdateStatusByDeadline moves every assignment still in from and due on or
// before deadline to to, in a single statement. Rows that no longer match at write
// time are left alone, so repeating the call changes nothing.
func (r *AssignmentRepository) UpdateStatusByDeadline(
	ctx context.Context,
	from, to domain.AssignmentStatus,
	deadline time.Time,
	at time.Time,
) ([]*domain.Assignment, error) {
	query := `
UPDATE assignments
SET status = $1, edited_at = $2
WHERE status = $3 AND deadline <= $4
RETURNING ` + assignmentColumns

	var assignments []*domain.Assignment
	if err := pgxscan.Select(ctx, r.db, &assignments, query, to, at, from, deadline); err != nil {
		return nil, handleError(err)
	}
	return assignments, nil
}

// ApplySubmission changes the status and writes the submission in one
// transaction. errdefs.ErrStaleStatus means the assignment was not in
// change.From any more (or does not exist).
func (r *AssignmentRepository) ApplySubmission(
	ctx context.Context,
	change domain.SubmissionChange,
) (_ *domain.Assignment, _ *domain.Submission, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, handleError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	assignment, err := updateStatus(ctx, tx, change.StatusChange, nil)
	if err != nil {
		return nil, nil, err
	}

	submission, err := writeSubmission(ctx, tx, change)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, handleError(err)
	}
	return assignment, submission, nil
}

// ApplyReview records the supervisor decision if the assignment is still in
// change.From.
func (r *AssignmentRepository) ApplyReview(ctx context.Context, change domain.ReviewChange) (*domain.Assignment, error) {
	remarks := change.RemarksByAdmin
	return updateStatus(ctx, r.db, change.StatusChange, &remarks)
}

func (r *AssignmentRepository) GetSubmission(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1`

	var submission domain.Submission
	if err := pgxscan.Get(ctx, r.db, &submission, query, assignmentID); err != nil {
		return nil, handleError(err)
	}
	return &submission, nil
}

func updateStatus(ctx context.Context, q pgxscan.Querier, change domain.StatusChange, remarks *string) (*domain.Assignment, error) {
	query := `
UPDATE assignments
SET status = $1, edited_at = $2, remarks_by_admin = COALESCE($3, remarks_by_admin)
WHERE id = $4 AND status = $5
RETURNING ` + assignmentColumns

	var assignment domain.Assignment
	err := pgxscan.Get(ctx, q, &assignment, query, change.To, change.At, remarks, change.AssignmentID, change.From)
	if err != nil {
		if isNotFound(err) {
			return nil, errdefs.ErrStaleStatus
		}
		return nil, handleError(err)
	}
	return &assignment, nil
}

func writeSubmission(ctx context.Context, q pgxscan.Querier, change domain.SubmissionChange) (*domain.Submission, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}

	var query string
	switch change.Write {
	case domain.SubmissionCreate:
		query = `
INSERT INTO submissions (id, assignment_id, submitted_at, remarks, artifact_ref, created_at, edited_at)
VALUES ($1, $2, $3, $4, $5, $3, $3)
RETURNING ` + submissionColumns
	case domain.SubmissionUpsert:
		query = `
INSERT INTO submissions (id, assignment_id, submitted_at, remarks, artifact_ref, created_at, edited_at)
VALUES ($1, $2, $3, $4, $5, $3, $3)
ON CONFLICT (assignment_id) DO UPDATE
SET submitted_at = EXCLUDED.submitted_at,
	remarks = EXCLUDED.remarks,
	artifact_ref = EXCLUDED.artifact_ref,
	edited_at = EXCLUDED.edited_at
RETURNING ` + submissionColumns
	default:
		return nil, fmt.Errorf("unknown submission write mode %d", change.Write)
	}

	var submission domain.Submission
	err = pgxscan.Get(ctx, q, &submission, query,
		id,
		change.AssignmentID,
		change.At,
		change.Remarks,
		change.ArtifactRef,
	)
	if err != nil {
		return nil, handleError(err)
	}
	return &submission, nil
}

func buildListQuery(filter domain.AssignmentFilter) (string, []any) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE 1=1`

	var args []any
	argsCount := 1

	if filter.AssigneeID != uuid.Nil {
		query += fmt.Sprintf(" AND assignee_id = $%d", argsCount)
		args = append(args, filter.AssigneeID)
		argsCount++
	}

	if filter.AssignedBy != uuid.Nil {
		query += fmt.Sprintf(" AND assigned_by = $%d", argsCount)
		args = append(args, filter.AssignedBy)
		argsCount++
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argsCount)
			args = append(args, filter.Statuses[i])
			argsCount++
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ", "))
	}

	query += " ORDER BY deadline, created_at, id"
	return query, args
}
