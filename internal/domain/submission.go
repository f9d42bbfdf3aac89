package domain

import (
	"time"

	"github.com/google/uuid"
)

type Submission struct {
	ID           uuid.UUID `db:"id"`
	AssignmentID uuid.UUID `db:"assignment_id"`
	SubmittedAt  time.Time `db:"submitted_at"`
	Remarks      string    `db:"remarks"`
	ArtifactRef  string    `db:"artifact_ref"`
	CreatedAt    time.Time `db:"created_at"`
	EditedAt     time.Time `db:"edited_at"`
}

// SubmissionWrite tells the store how to persist a submission together with
// a status change.
type SubmissionWrite int

const (
	// SubmissionCreate inserts a new row; an existing row for the assignment is an error.
	SubmissionCreate SubmissionWrite = iota + 1
	// SubmissionUpsert updates the live row in place, creating it if missing.
	SubmissionUpsert
)
