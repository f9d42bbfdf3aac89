package domain

import "strings"

type UserRole string

const (
	UserRoleSupervisor UserRole = "supervisor"
	UserRoleAssignee   UserRole = "assignee"
)

// ParseUserRole accepts the role names used by the gateway. Anything else is
// rejected so that every operation works on a closed set of roles.
func ParseUserRole(role string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "supervisor", "admin":
		return UserRoleSupervisor, true
	case "assignee", "user":
		return UserRoleAssignee, true
	default:
		return "", false
	}
}

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusIncomplete,
		AssignmentStatusCompleted, AssignmentStatusLateSubmit, AssignmentStatusRejected,
		AssignmentStatusResubmitted, AssignmentStatusApproved:
		return true
	default:
		return false
	}
}

func (s AssignmentStatus) String() string {
	return string(s)
}

// ToAssignmentStatus parses a status name case-insensitively.
func ToAssignmentStatus(status string) (AssignmentStatus, bool) {
	s := AssignmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "APPROVED"
	ReviewDecisionRejected ReviewDecision = "REJECTED"
)

func (d ReviewDecision) IsValid() bool {
	switch d {
	case ReviewDecisionApproved, ReviewDecisionRejected:
		return true
	default:
		return false
	}
}

// Operation names an engine operation for diagnostics.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationSweep  Operation = "sweep"
	OperationSubmit Operation = "submit"
	OperationReview Operation = "review"
)
