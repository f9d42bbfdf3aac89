package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusChange is a conditional status write: it only applies while the
// assignment is still in From.
type StatusChange struct {
	AssignmentID uuid.UUID
	From         AssignmentStatus
	To           AssignmentStatus
	At           time.Time
}

// SubmissionChange moves an assignment and writes its submission in one unit.
type SubmissionChange struct {
	StatusChange
	Write       SubmissionWrite
	Remarks     string
	ArtifactRef string
}

type ReviewChange struct {
	StatusChange
	RemarksByAdmin string
}

// StatusEvent describes a committed status change. From is empty for a newly
// created assignment.
type StatusEvent struct {
	AssignmentID uuid.UUID
	AssigneeID   uuid.UUID
	WorkItemID   uuid.UUID
	AssignedBy   uuid.UUID
	Operation    Operation
	From         AssignmentStatus
	To           AssignmentStatus
	Deadline     time.Time
	At           time.Time
}

func NewStatusEvent(a *Assignment, op Operation, from AssignmentStatus) StatusEvent {
	return StatusEvent{
		AssignmentID: a.ID,
		AssigneeID:   a.AssigneeID,
		WorkItemID:   a.WorkItemID,
		AssignedBy:   a.AssignedBy,
		Operation:    op,
		From:         from,
		To:           a.Status,
		Deadline:     a.Deadline,
		At:           a.EditedAt,
	}
}
