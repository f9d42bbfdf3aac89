package httpapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
)

type createAssignmentRequest struct {
	AssigneeID  string `json:"assignee_id"`
	WorkItemID  string `json:"work_item_id"`
	Deadline    string `json:"deadline"`
	Description string `json:"description"`
}

type submitWorkRequest struct {
	Remarks     string `json:"remarks"`
	ArtifactRef string `json:"artifact_ref"`
}

type reviewRequest struct {
	Decision       string `json:"decision"`
	RemarksByAdmin string `json:"remarks_by_admin"`
}

type assignmentResponse struct {
	ID             string  `json:"id"`
	AssigneeID     string  `json:"assignee_id"`
	WorkItemID     string  `json:"work_item_id"`
	Deadline       string  `json:"deadline"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
	AssignedBy     string  `json:"assigned_by"`
	RemarksByAdmin *string `json:"remarks_by_admin,omitempty"`
	CreatedAt      string  `json:"created_at"`
	EditedAt       string  `json:"edited_at"`
}

type listResponse struct {
	Assignments []assignmentResponse `json:"assignments"`
}

type submissionResponse struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	SubmittedAt  string `json:"submitted_at"`
	Remarks      string `json:"remarks"`
	ArtifactRef  string `json:"artifact_ref"`
}

type sweepResponse struct {
	Moved int `json:"moved"`
}

func toAssignmentResponse(a *domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:             a.ID.String(),
		AssigneeID:     a.AssigneeID.String(),
		WorkItemID:     a.WorkItemID.String(),
		Deadline:       a.Deadline.Format(time.DateOnly),
		Status:         string(a.Status),
		Description:    a.Description,
		AssignedBy:     a.AssignedBy.String(),
		RemarksByAdmin: a.RemarksByAdmin,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		EditedAt:       a.EditedAt.Format(time.RFC3339),
	}
}

func toListResponse(assignments []*domain.Assignment) listResponse {
	resp := listResponse{Assignments: make([]assignmentResponse, 0, len(assignments))}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(a))
	}
	return resp
}

func toSubmissionResponse(s *domain.Submission) submissionResponse {
	return submissionResponse{
		ID:           s.ID.String(),
		AssignmentID: s.AssignmentID.String(),
		SubmittedAt:  s.SubmittedAt.Format(time.RFC3339),
		Remarks:      s.Remarks,
		ArtifactRef:  s.ArtifactRef,
	}
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, field, raw)
	}
	return id, nil
}

func parseDeadline(raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errdefs.Validation("deadline must be YYYY-MM-DD, got %q", raw)
	}
	return d, nil
}
