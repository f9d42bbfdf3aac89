package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"assignment_service/internal/domain"
	"assignment_service/internal/errdefs"
	"assignment_service/internal/lifecycle"
	"assignment_service/internal/metrics"
	"assignment_service/internal/service"
	"assignment_service/internal/service/mocks"
	"assignment_service/pkg/clock"
	"assignment_service/pkg/ctxdata"
	"assignment_service/pkg/logging"
)

var (
	today     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	morning   = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	evening   = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	errBroken = errors.New("connection reset by peer")
)

type fixture struct {
	svc     *service.AssignmentService
	repo    *mocks.MockAssignmentRepository
	dir     *mocks.MockDirectory
	events  *mocks.MockEventPublisher
	metrics *mocks.MockMetrics
	clock   *clock.Manual
}

func setup(t *testing.T, now time.Time) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		repo:    mocks.NewMockAssignmentRepository(ctrl),
		dir:     mocks.NewMockDirectory(ctrl),
		events:  mocks.NewMockEventPublisher(ctrl),
		metrics: mocks.NewMockMetrics(ctrl),
		clock:   clock.NewManual(now),
	}
	f.metrics.EXPECT().TransitionApplied(gomock.Any(), gomock.Any()).AnyTimes()
	f.metrics.EXPECT().OperationFailed(gomock.Any(), gomock.Any()).AnyTimes()
	f.metrics.EXPECT().SweepCompleted(gomock.Any(), gomock.Any()).AnyTimes()
	// Before the cutoff the opportunistic sweep only looks at earlier days.
	f.repo.EXPECT().UpdateStatusByDeadline(gomock.Any(),
		domain.AssignmentStatusInProgress, domain.AssignmentStatusIncomplete, today.AddDate(0, 0, -1), gomock.Any()).
		Return(nil, nil).AnyTimes()

	f.svc = service.NewAssignmentService(
		f.repo, f.dir, f.events, f.metrics, f.clock,
		lifecycle.MustSchedule(lifecycle.DefaultCutoff, time.UTC),
		logging.NewNop(),
	)
	return f
}

func userCtx(userID uuid.UUID, role domain.UserRole) context.Context {
	return ctxdata.WithIdentity(context.Background(), userID.String(), string(role))
}

func assignment(status domain.AssignmentStatus, assigneeID uuid.UUID) *domain.Assignment {
	return &domain.Assignment{
		ID:         uuid.New(),
		AssigneeID: assigneeID,
		WorkItemID: uuid.New(),
		Deadline:   today,
		Status:     status,
		AssignedBy: uuid.New(),
		CreatedAt:  morning,
		EditedAt:   morning,
	}
}

func requireTNA(t *testing.T, err error, status domain.AssignmentStatus, op domain.Operation) {
	t.Helper()
	require.ErrorIs(t, err, errdefs.ErrTransitionNotAllowed)
	var tna *errdefs.TransitionNotAllowedError
	require.ErrorAs(t, err, &tna)
	assert.Equal(t, status, tna.Status)
	assert.Equal(t, op, tna.Operation)
}

// ── CreateAssignment ────────────────────────────────────────────────

func TestCreateAssignment(t *testing.T) {
	supervisorID := uuid.New()
	assigneeID := uuid.New()
	workItemID := uuid.New()

	input := service.CreateAssignmentInput{
		AssigneeID:  assigneeID,
		WorkItemID:  workItemID,
		Deadline:    today,
		Description: "  read chapter 3  ",
	}

	expectLookups := func(f *fixture) {
		f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).
			Return(&domain.User{ID: assigneeID, Role: domain.UserRoleAssignee}, nil)
		f.dir.EXPECT().GetWorkItem(gomock.Any(), workItemID).
			Return(&domain.WorkItem{ID: workItemID}, nil)
		f.repo.EXPECT().GetByPair(gomock.Any(), assigneeID, workItemID).Return(nil, errdefs.ErrNotFound)
	}

	t.Run("BeforeCutoffStartsInProgress", func(t *testing.T) {
		f := setup(t, morning)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, a *domain.Assignment) error {
				a.ID = uuid.New()
				return nil
			})
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e domain.StatusEvent) error {
				assert.Equal(t, domain.OperationCreate, e.Operation)
				assert.Empty(t, e.From)
				assert.Equal(t, domain.AssignmentStatusInProgress, e.To)
				return nil
			})

		a, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusInProgress, a.Status)
		assert.Equal(t, supervisorID, a.AssignedBy)
		assert.Equal(t, "read chapter 3", a.Description)
		assert.Equal(t, today, a.Deadline)
		assert.Equal(t, morning, a.CreatedAt)
	})

	t.Run("PastDeadlineStartsIncomplete", func(t *testing.T) {
		f := setup(t, morning)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil)

		in := input
		in.Deadline = today.AddDate(0, 0, -1)
		a, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), in)
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusIncomplete, a.Status)
	})

	t.Run("AfterCutoffSweepsFirst", func(t *testing.T) {
		f := setup(t, evening)
		swept := assignment(domain.AssignmentStatusIncomplete, uuid.New())
		f.repo.EXPECT().UpdateStatusByDeadline(gomock.Any(),
			domain.AssignmentStatusInProgress, domain.AssignmentStatusIncomplete, today, evening).
			Return([]*domain.Assignment{swept}, nil)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		a, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusIncomplete, a.Status)
	})

	t.Run("SweepFailureDoesNotBlockCreate", func(t *testing.T) {
		f := setup(t, evening)
		f.repo.EXPECT().UpdateStatusByDeadline(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errBroken)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		require.NoError(t, err)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		f := setup(t, morning)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(errBroken)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		require.NoError(t, err)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		f := setup(t, morning)
		_, err := f.svc.CreateAssignment(context.Background(), input)
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		f := setup(t, morning)
		ctx := ctxdata.WithIdentity(context.Background(), supervisorID.String(), "owner")
		_, err := f.svc.CreateAssignment(ctx, input)
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("AssigneeCannotCreate", func(t *testing.T) {
		f := setup(t, morning)
		_, err := f.svc.CreateAssignment(userCtx(assigneeID, domain.UserRoleAssignee), input)
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("Validation", func(t *testing.T) {
		tests := map[string]func(in *service.CreateAssignmentInput){
			"NoAssignee": func(in *service.CreateAssignmentInput) { in.AssigneeID = uuid.Nil },
			"NoWorkItem": func(in *service.CreateAssignmentInput) { in.WorkItemID = uuid.Nil },
			"NoDeadline": func(in *service.CreateAssignmentInput) { in.Deadline = time.Time{} },
		}
		for name, mutate := range tests {
			t.Run(name, func(t *testing.T) {
				f := setup(t, morning)
				in := input
				mutate(&in)
				_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), in)
				assert.ErrorIs(t, err, errdefs.ErrValidation)
			})
		}
	})

	t.Run("AssigneeNotFound", func(t *testing.T) {
		f := setup(t, morning)
		f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).Return(nil, errdefs.ErrNotFound)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("AssigneeIsSupervisor", func(t *testing.T) {
		f := setup(t, morning)
		f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).
			Return(&domain.User{ID: assigneeID, Role: domain.UserRoleSupervisor}, nil)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("WorkItemNotFound", func(t *testing.T) {
		f := setup(t, morning)
		f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).
			Return(&domain.User{ID: assigneeID, Role: domain.UserRoleAssignee}, nil)
		f.dir.EXPECT().GetWorkItem(gomock.Any(), workItemID).Return(nil, errdefs.ErrNotFound)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("DirectoryFailureIsInternal", func(t *testing.T) {
		f := setup(t, morning)
		f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).Return(nil, errBroken)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		assert.ErrorIs(t, err, errdefs.ErrInternal)
		assert.ErrorContains(t, err, errBroken.Error())
		assert.False(t, errdefs.IsDomain(err))
	})

	t.Run("ConflictWhateverTheExistingStatus", func(t *testing.T) {
		for _, status := range []domain.AssignmentStatus{
			domain.AssignmentStatusInProgress,
			domain.AssignmentStatusRejected,
			domain.AssignmentStatusApproved,
		} {
			t.Run(string(status), func(t *testing.T) {
				f := setup(t, morning)
				f.dir.EXPECT().GetUser(gomock.Any(), assigneeID).
					Return(&domain.User{ID: assigneeID, Role: domain.UserRoleAssignee}, nil)
				f.dir.EXPECT().GetWorkItem(gomock.Any(), workItemID).Return(&domain.WorkItem{ID: workItemID}, nil)
				f.repo.EXPECT().GetByPair(gomock.Any(), assigneeID, workItemID).
					Return(assignment(status, assigneeID), nil)

				_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
				assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
			})
		}
	})

	t.Run("ConflictOnInsertRace", func(t *testing.T) {
		f := setup(t, morning)
		expectLookups(f)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errdefs.ErrAlreadyExists)

		_, err := f.svc.CreateAssignment(userCtx(supervisorID, domain.UserRoleSupervisor), input)
		assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
	})
}

// ── SweepOverdue ────────────────────────────────────────────────────

func TestSweepOverdue(t *testing.T) {
	t.Run("BeforeCutoffLeavesTodayAlone", func(t *testing.T) {
		f := setup(t, morning)

		n, err := f.svc.SweepOverdue(context.Background(), morning)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("BeforeCutoffCatchesUpEarlierDays", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockAssignmentRepository(ctrl)
		events := mocks.NewMockEventPublisher(ctrl)
		svc := service.NewAssignmentService(repo, mocks.NewMockDirectory(ctrl), events,
			metrics.NewNop(), clock.NewManual(morning), lifecycle.MustSchedule("17:00", time.UTC), logging.NewNop())

		missed := assignment(domain.AssignmentStatusIncomplete, uuid.New())
		missed.Deadline = today.AddDate(0, 0, -1)
		repo.EXPECT().UpdateStatusByDeadline(gomock.Any(),
			domain.AssignmentStatusInProgress, domain.AssignmentStatusIncomplete, today.AddDate(0, 0, -1), morning).
			Return([]*domain.Assignment{missed}, nil)
		events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil)

		n, err := svc.SweepOverdue(context.Background(), morning)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("AtCutoff", func(t *testing.T) {
		f := setup(t, morning)
		cutoff := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
		moved := []*domain.Assignment{
			assignment(domain.AssignmentStatusIncomplete, uuid.New()),
			assignment(domain.AssignmentStatusIncomplete, uuid.New()),
		}
		f.repo.EXPECT().UpdateStatusByDeadline(gomock.Any(),
			domain.AssignmentStatusInProgress, domain.AssignmentStatusIncomplete, today, cutoff).
			Return(moved, nil)
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		n, err := f.svc.SweepOverdue(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := setup(t, morning)
		f.repo.EXPECT().UpdateStatusByDeadline(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errBroken)

		_, err := f.svc.SweepOverdue(context.Background(), evening)
		assert.ErrorIs(t, err, errdefs.ErrInternal)
	})

	t.Run("RecordsMetrics", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockAssignmentRepository(ctrl)
		m := mocks.NewMockMetrics(ctrl)
		svc := service.NewAssignmentService(repo, mocks.NewMockDirectory(ctrl), mocks.NewMockEventPublisher(ctrl),
			m, clock.NewManual(evening), lifecycle.MustSchedule("17:00", time.UTC), logging.NewNop())

		repo.EXPECT().UpdateStatusByDeadline(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil)
		m.EXPECT().SweepCompleted(0, gomock.Any())

		n, err := svc.SweepOverdue(context.Background(), evening)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

// ── SubmitWork ──────────────────────────────────────────────────────

func TestSubmitWork(t *testing.T) {
	assigneeID := uuid.New()
	input := func(id uuid.UUID) service.SubmitWorkInput {
		return service.SubmitWorkInput{AssignmentID: id, Remarks: "done", ArtifactRef: "uploads/a.pdf"}
	}

	cases := []struct {
		from  domain.AssignmentStatus
		to    domain.AssignmentStatus
		write domain.SubmissionWrite
	}{
		{domain.AssignmentStatusInProgress, domain.AssignmentStatusCompleted, domain.SubmissionCreate},
		{domain.AssignmentStatusIncomplete, domain.AssignmentStatusLateSubmit, domain.SubmissionCreate},
		{domain.AssignmentStatusRejected, domain.AssignmentStatusResubmitted, domain.SubmissionUpsert},
	}
	for _, tc := range cases {
		t.Run(string(tc.from), func(t *testing.T) {
			f := setup(t, morning)
			current := assignment(tc.from, assigneeID)
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
			f.repo.EXPECT().ApplySubmission(gomock.Any(), domain.SubmissionChange{
				StatusChange: domain.StatusChange{AssignmentID: current.ID, From: tc.from, To: tc.to, At: morning},
				Write:        tc.write,
				Remarks:      "done",
				ArtifactRef:  "uploads/a.pdf",
			}).DoAndReturn(func(_ context.Context, c domain.SubmissionChange) (*domain.Assignment, *domain.Submission, error) {
				updated := *current
				updated.Status = c.To
				return &updated, &domain.Submission{AssignmentID: current.ID}, nil
			})
			f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil)

			a, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), input(current.ID))
			require.NoError(t, err)
			assert.Equal(t, tc.to, a.Status)
		})
	}

	t.Run("NotAllowedForEveryRole", func(t *testing.T) {
		for _, status := range []domain.AssignmentStatus{
			domain.AssignmentStatusCompleted,
			domain.AssignmentStatusLateSubmit,
			domain.AssignmentStatusResubmitted,
			domain.AssignmentStatusApproved,
		} {
			for _, ctx := range []context.Context{
				userCtx(assigneeID, domain.UserRoleAssignee),
				userCtx(uuid.New(), domain.UserRoleAssignee),
				userCtx(uuid.New(), domain.UserRoleSupervisor),
			} {
				f := setup(t, morning)
				current := assignment(status, assigneeID)
				f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

				_, err := f.svc.SubmitWork(ctx, input(current.ID))
				requireTNA(t, err, status, domain.OperationSubmit)
			}
		}
	})

	t.Run("NotTheAssignee", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

		_, err := f.svc.SubmitWork(userCtx(uuid.New(), domain.UserRoleAssignee), input(current.ID))
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("SupervisorCannotSubmit", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

		_, err := f.svc.SubmitWork(userCtx(uuid.New(), domain.UserRoleSupervisor), input(current.ID))
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("MissingFields", func(t *testing.T) {
		for name, in := range map[string]service.SubmitWorkInput{
			"NoRemarks":  {Remarks: "   ", ArtifactRef: "uploads/a.pdf"},
			"NoArtifact": {Remarks: "done"},
		} {
			t.Run(name, func(t *testing.T) {
				f := setup(t, morning)
				current := assignment(domain.AssignmentStatusInProgress, assigneeID)
				f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

				in.AssignmentID = current.ID
				_, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), in)
				assert.ErrorIs(t, err, errdefs.ErrValidation)
			})
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		f := setup(t, morning)
		id := uuid.New()
		f.repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, errdefs.ErrNotFound)

		_, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), input(id))
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("LostRaceToSweep", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		swept := *current
		swept.Status = domain.AssignmentStatusIncomplete

		gomock.InOrder(
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil),
			f.repo.EXPECT().ApplySubmission(gomock.Any(), gomock.Any()).Return(nil, nil, errdefs.ErrStaleStatus),
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(&swept, nil),
		)

		_, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), input(current.ID))
		requireTNA(t, err, domain.AssignmentStatusIncomplete, domain.OperationSubmit)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
		f.repo.EXPECT().ApplySubmission(gomock.Any(), gomock.Any()).Return(nil, nil, errBroken)

		_, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), input(current.ID))
		assert.ErrorIs(t, err, errdefs.ErrInternal)
	})

	t.Run("LeftoverSubmissionRowIsInternal", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
		f.repo.EXPECT().ApplySubmission(gomock.Any(), gomock.Any()).
			Return(nil, nil, fmt.Errorf("repository error: submission for %s: %w", current.ID, errdefs.ErrAlreadyExists))

		_, err := f.svc.SubmitWork(userCtx(assigneeID, domain.UserRoleAssignee), input(current.ID))
		assert.ErrorIs(t, err, errdefs.ErrInternal)
		assert.NotErrorIs(t, err, errdefs.ErrAlreadyExists)
	})
}

// ── ReviewSubmission ────────────────────────────────────────────────

func TestReviewSubmission(t *testing.T) {
	supervisorID := uuid.New()

	t.Run("Approve", func(t *testing.T) {
		f := setup(t, evening)
		current := assignment(domain.AssignmentStatusLateSubmit, uuid.New())
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
		f.repo.EXPECT().ApplyReview(gomock.Any(), domain.ReviewChange{
			StatusChange: domain.StatusChange{
				AssignmentID: current.ID,
				From:         domain.AssignmentStatusLateSubmit,
				To:           domain.AssignmentStatusApproved,
				At:           evening,
			},
			RemarksByAdmin: "ok",
		}).DoAndReturn(func(_ context.Context, c domain.ReviewChange) (*domain.Assignment, error) {
			updated := *current
			updated.Status = c.To
			updated.RemarksByAdmin = &c.RemarksByAdmin
			return &updated, nil
		})
		f.events.EXPECT().PublishStatusChanged(gomock.Any(), gomock.Any()).Return(nil)

		a, err := f.svc.ReviewSubmission(userCtx(supervisorID, domain.UserRoleSupervisor), service.ReviewInput{
			AssignmentID:   current.ID,
			Decision:       domain.ReviewDecisionApproved,
			RemarksByAdmin: " ok ",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusApproved, a.Status)
		require.NotNil(t, a.RemarksByAdmin)
		assert.Equal(t, "ok", *a.RemarksByAdmin)
	})

	t.Run("InvalidDecision", func(t *testing.T) {
		f := setup(t, evening)
		_, err := f.svc.ReviewSubmission(userCtx(supervisorID, domain.UserRoleSupervisor), service.ReviewInput{
			AssignmentID: uuid.New(),
			Decision:     "MAYBE",
		})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("NotAllowed", func(t *testing.T) {
		for _, status := range []domain.AssignmentStatus{
			domain.AssignmentStatusInProgress,
			domain.AssignmentStatusIncomplete,
			domain.AssignmentStatusRejected,
			domain.AssignmentStatusApproved,
		} {
			f := setup(t, evening)
			current := assignment(status, uuid.New())
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

			_, err := f.svc.ReviewSubmission(userCtx(supervisorID, domain.UserRoleSupervisor), service.ReviewInput{
				AssignmentID: current.ID,
				Decision:     domain.ReviewDecisionRejected,
			})
			requireTNA(t, err, status, domain.OperationReview)
		}
	})

	t.Run("AssigneeCannotReview", func(t *testing.T) {
		f := setup(t, evening)
		current := assignment(domain.AssignmentStatusCompleted, uuid.New())
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

		_, err := f.svc.ReviewSubmission(userCtx(current.AssigneeID, domain.UserRoleAssignee), service.ReviewInput{
			AssignmentID: current.ID,
			Decision:     domain.ReviewDecisionApproved,
		})
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("LostRace", func(t *testing.T) {
		f := setup(t, evening)
		current := assignment(domain.AssignmentStatusCompleted, uuid.New())
		approved := *current
		approved.Status = domain.AssignmentStatusApproved

		gomock.InOrder(
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil),
			f.repo.EXPECT().ApplyReview(gomock.Any(), gomock.Any()).Return(nil, errdefs.ErrStaleStatus),
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(&approved, nil),
		)

		_, err := f.svc.ReviewSubmission(userCtx(supervisorID, domain.UserRoleSupervisor), service.ReviewInput{
			AssignmentID: current.ID,
			Decision:     domain.ReviewDecisionRejected,
		})
		requireTNA(t, err, domain.AssignmentStatusApproved, domain.OperationReview)
	})
}

// ── GetSubmission ───────────────────────────────────────────────────

func TestGetSubmission(t *testing.T) {
	assigneeID := uuid.New()

	t.Run("OwnerAndSupervisor", func(t *testing.T) {
		for _, ctx := range []context.Context{
			userCtx(assigneeID, domain.UserRoleAssignee),
			userCtx(uuid.New(), domain.UserRoleSupervisor),
		} {
			f := setup(t, morning)
			current := assignment(domain.AssignmentStatusCompleted, assigneeID)
			f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
			f.repo.EXPECT().GetSubmission(gomock.Any(), current.ID).
				Return(&domain.Submission{AssignmentID: current.ID, Remarks: "done"}, nil)

			sub, err := f.svc.GetSubmission(ctx, current.ID)
			require.NoError(t, err)
			assert.Equal(t, "done", sub.Remarks)
		}
	})

	t.Run("OtherAssignee", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusCompleted, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)

		_, err := f.svc.GetSubmission(userCtx(uuid.New(), domain.UserRoleAssignee), current.ID)
		assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
	})

	t.Run("NoSubmissionYet", func(t *testing.T) {
		f := setup(t, morning)
		current := assignment(domain.AssignmentStatusInProgress, assigneeID)
		f.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil)
		f.repo.EXPECT().GetSubmission(gomock.Any(), current.ID).Return(nil, errdefs.ErrNotFound)

		_, err := f.svc.GetSubmission(userCtx(assigneeID, domain.UserRoleAssignee), current.ID)
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})
}

func TestFailuresAreCounted(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMetrics(ctrl)
	svc := service.NewAssignmentService(mocks.NewMockAssignmentRepository(ctrl), mocks.NewMockDirectory(ctrl),
		mocks.NewMockEventPublisher(ctrl), m, clock.NewManual(morning),
		lifecycle.MustSchedule("17:00", time.UTC), logging.NewNop())

	m.EXPECT().OperationFailed(domain.OperationCreate, "permission_denied")

	_, err := svc.CreateAssignment(context.Background(), service.CreateAssignmentInput{})
	assert.ErrorIs(t, err, errdefs.ErrPermissionDenied)
}

var _ service.Metrics = metrics.NewNop()
