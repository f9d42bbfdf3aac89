package lifecycle

import (
	"time"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
)

// InitialStatus is the status a new assignment starts in.
func InitialStatus(s Schedule, deadline, now time.Time) domain.AssignmentStatus {
	if s.IsOverdue(deadline, now) {
		return domain.AssignmentStatusIncomplete
	}
	return domain.AssignmentStatusInProgress
}

type submitRule struct {
	next  domain.AssignmentStatus
	write domain.SubmissionWrite
}

var submitRules = map[domain.AssignmentStatus]submitRule{
	domain.AssignmentStatusInProgress: {next: domain.AssignmentStatusCompleted, write: domain.SubmissionCreate},
	domain.AssignmentStatusIncomplete: {next: domain.AssignmentStatusLateSubmit, write: domain.SubmissionCreate},
	domain.AssignmentStatusRejected:   {next: domain.AssignmentStatusResubmitted, write: domain.SubmissionUpsert},
}

var reviewable = map[domain.AssignmentStatus]bool{
	domain.AssignmentStatusCompleted:   true,
	domain.AssignmentStatusLateSubmit:  true,
	domain.AssignmentStatusResubmitted: true,
}

// Submit returns the status an assignee submission moves current to and how
// the submission record must be written.
func Submit(current domain.AssignmentStatus) (domain.AssignmentStatus, domain.SubmissionWrite, error) {
	rule, ok := submitRules[current]
	if !ok {
		return "", 0, errdefs.NewTransitionNotAllowed(current, domain.OperationSubmit)
	}
	return rule.next, rule.write, nil
}

// Review returns the status a supervisor decision moves current to.
// The decision is validated before the status so that a malformed request is
// reported as such whatever state the assignment is in.
func Review(current domain.AssignmentStatus, decision domain.ReviewDecision) (domain.AssignmentStatus, error) {
	if !decision.IsValid() {
		return "", errdefs.Validation("decision must be %s or %s, got %q",
			domain.ReviewDecisionApproved, domain.ReviewDecisionRejected, decision)
	}
	if !reviewable[current] {
		return "", errdefs.NewTransitionNotAllowed(current, domain.OperationReview)
	}
	return domain.AssignmentStatus(decision), nil
}

// Sweep returns the status the deadline sweep moves current to. Only
// IN_PROGRESS assignments are affected.
func Sweep(current domain.AssignmentStatus) (domain.AssignmentStatus, error) {
	if current != domain.AssignmentStatusInProgress {
		return "", errdefs.NewTransitionNotAllowed(current, domain.OperationSweep)
	}
	return domain.AssignmentStatusIncomplete, nil
}

func CanSubmit(current domain.AssignmentStatus) bool {
	_, ok := submitRules[current]
	return ok
}

func CanReview(current domain.AssignmentStatus) bool {
	return reviewable[current]
}

// IsTerminal reports whether no operation can move current any further.
func IsTerminal(current domain.AssignmentStatus) bool {
	return current == domain.AssignmentStatusApproved
}
