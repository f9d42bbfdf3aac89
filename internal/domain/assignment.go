package domain

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID             uuid.UUID        `db:"id"`
	AssigneeID     uuid.UUID        `db:"assignee_id"`
	WorkItemID     uuid.UUID        `db:"work_item_id"`
	Deadline       time.Time        `db:"deadline"`
	Status         AssignmentStatus `db:"status"`
	Description    string           `db:"description"`
	AssignedBy     uuid.UUID        `db:"assigned_by"`
	RemarksByAdmin *string          `db:"remarks_by_admin"`
	CreatedAt      time.Time        `db:"created_at"`
	EditedAt       time.Time        `db:"edited_at"`
}

type AssignmentStatus string

const (
	// AssignmentStatusPending is kept for schema compatibility. No operation produces it.
	AssignmentStatusPending     AssignmentStatus = "PENDING"
	AssignmentStatusInProgress  AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusIncomplete  AssignmentStatus = "INCOMPLETE"
	AssignmentStatusCompleted   AssignmentStatus = "COMPLETED"
	AssignmentStatusLateSubmit  AssignmentStatus = "LATESUBMIT"
	AssignmentStatusRejected    AssignmentStatus = "REJECTED"
	AssignmentStatusResubmitted AssignmentStatus = "RESUBMITTED"
	AssignmentStatusApproved    AssignmentStatus = "APPROVED"
)

// AssignmentFilter selects assignments for listing. Zero fields are ignored.
type AssignmentFilter struct {
	AssigneeID uuid.UUID
	AssignedBy uuid.UUID
	Statuses   []AssignmentStatus
}
