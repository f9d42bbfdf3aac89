// Package httpapi exposes the assignment engine over HTTP. Callers are
// identified by the X-User-Id and X-User-Role headers the gateway sets after
// authenticating them.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
	"assignment_service/internal/service"
	"assignment_service/pkg/clock"
)

type Engine interface {
	CreateAssignment(ctx context.Context, in service.CreateAssignmentInput) (*domain.Assignment, error)
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
	SubmitWork(ctx context.Context, in service.SubmitWorkInput) (*domain.Assignment, error)
	ReviewSubmission(ctx context.Context, in service.ReviewInput) (*domain.Assignment, error)
	GetSubmission(ctx context.Context, assignmentID uuid.UUID) (*domain.Submission, error)
}

type Queries interface {
	GetAssignment(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	List(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, error)
}

type AssignmentHandler struct {
	engine  Engine
	queries Queries
	clock   clock.Clock
}

func NewAssignmentHandler(engine Engine, queries Queries, clk clock.Clock) *AssignmentHandler {
	return &AssignmentHandler{engine: engine, queries: queries, clock: clk}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/assignments", h.CreateAssignment)
	r.Get("/assignments", h.ListAssignments)
	r.Get("/assignments/{id}", h.GetAssignment)
	r.Post("/assignments/{id}/submission", h.SubmitWork)
	r.Get("/assignments/{id}/submission", h.GetSubmission)
	r.Post("/assignments/{id}/review", h.ReviewSubmission)
	r.Post("/sweeps", h.Sweep)
}

func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	assigneeID, err := parseUUID("assignee_id", req.AssigneeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	workItemID, err := parseUUID("work_item_id", req.WorkItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.engine.CreateAssignment(r.Context(), service.CreateAssignmentInput{
		AssigneeID:  assigneeID,
		WorkItemID:  workItemID,
		Deadline:    deadline,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, err := service.ActorFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.queries.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !actor.IsSupervisor() && a.AssigneeID != actor.ID {
		writeError(w, r, errdefs.PermissionDenied("assignment belongs to another user"))
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

// ListAssignments filters by assignee_id, assigned_by and any number of
// status values. Assignees only ever see their own assignments.
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	actor, err := service.ActorFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	var filter domain.AssignmentFilter
	if raw := q.Get("assignee_id"); raw != "" {
		if filter.AssigneeID, err = parseUUID("assignee_id", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if raw := q.Get("assigned_by"); raw != "" {
		if filter.AssignedBy, err = parseUUID("assigned_by", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}
	for _, raw := range q["status"] {
		status, ok := domain.ToAssignmentStatus(raw)
		if !ok {
			writeError(w, r, errdefs.Validation("unknown status %q", raw))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	if !actor.IsSupervisor() {
		if filter.AssigneeID != uuid.Nil && filter.AssigneeID != actor.ID {
			writeError(w, r, errdefs.PermissionDenied("cannot list another user's assignments"))
			return
		}
		filter.AssigneeID = actor.ID
	}

	assignments, err := h.queries.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(assignments))
}

func (h *AssignmentHandler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req submitWorkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.engine.SubmitWork(r.Context(), service.SubmitWorkInput{
		AssignmentID: id,
		Remarks:      req.Remarks,
		ArtifactRef:  req.ArtifactRef,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func (h *AssignmentHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.engine.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(s))
}

func (h *AssignmentHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.engine.ReviewSubmission(r.Context(), service.ReviewInput{
		AssignmentID:   id,
		Decision:       domain.ReviewDecision(req.Decision),
		RemarksByAdmin: req.RemarksByAdmin,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

// Sweep runs the deadline sweep on demand. Supervisors only.
func (h *AssignmentHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	actor, err := service.ActorFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !actor.IsSupervisor() {
		writeError(w, r, errdefs.PermissionDenied("only a supervisor can trigger a sweep"))
		return
	}

	moved, err := h.engine.SweepOverdue(r.Context(), h.clock.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Moved: moved})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return parseUUID("assignment id", chi.URLParam(r, "id"))
}
