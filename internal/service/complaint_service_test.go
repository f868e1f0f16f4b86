package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/testutil"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var (
	student = domain.Actor{UserID: 7, Role: domain.RoleStudent}
	tech    = domain.Actor{UserID: 3, Role: domain.RoleDepartment, DepartmentID: "technology"}
	admin   = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

type harness struct {
	svc        *ComplaintService
	complaints *testutil.ComplaintStore
	ledger     *testutil.Ledger
	notifier   *testutil.Notifier
	metrics    *observability.Metrics
	now        time.Time

	mu     sync.Mutex
	events []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		complaints: testutil.NewComplaintStore(),
		ledger:     testutil.NewLedger(),
		notifier:   &testutil.Notifier{},
		metrics:    observability.NewMetrics(),
		now:        time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
	}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventComplaintSubmitted, record)
	dispatcher.Subscribe(events.EventComplaintStatusChanged, record)
	dispatcher.Subscribe(events.EventComplaintPrioritized, record)

	h.svc = NewComplaintService(ComplaintDependencies{
		ComplaintRepo:         h.complaints,
		Ledger:                h.ledger,
		Notifier:              h.notifier,
		Dispatcher:            dispatcher,
		Metrics:               h.metrics,
		DepartmentEmailDomain: "university.edu",
		PublicBaseURL:         "http://localhost:8092",
		Clock:                 func() time.Time { return h.now },
	})
	return h
}

func (h *harness) submit(t *testing.T, title, category string) *ComplaintView {
	t.Helper()
	view, err := h.svc.Submit(context.Background(), student, SubmitInput{Title: title, Category: category, Description: "details"})
	require.NoError(t, err)
	return view
}

func TestSubmit_CreatesPendingComplaintAndLedgerRow(t *testing.T) {
	h := newHarness(t)

	view, err := h.svc.Submit(context.Background(), student, SubmitInput{
		Title:       "  Wifi down  ",
		Category:    "Technology",
		Description: "No signal in library",
	})
	require.NoError(t, err)

	assert.Equal(t, "Wifi down", view.Title)
	assert.Equal(t, domain.TokenPending, view.Status)
	assert.Equal(t, "it@university.edu", view.DepartmentEmail)
	assert.Equal(t, "2024-03-09", view.SubmittedAt)
	assert.Equal(t, "2024-03-09", view.LastUpdated)
	assert.Empty(t, view.ResolvedAt)
	assert.Equal(t, domain.DeptStatusPending, view.DepartmentStatus)
	assert.Empty(t, view.DepartmentRemarks)

	entry, ok := h.ledger.Entry(domain.TableTechnology, view.ID)
	require.True(t, ok)
	assert.Equal(t, domain.DeptStatusPending, entry.Status)

	stored, err := h.complaints.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, student.UserID, stored.OwnerID)
	assert.Equal(t, domain.StatusPending, stored.Status)

	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventComplaintSubmitted, h.events[0].Type)
	assert.NotEmpty(t, h.events[0].ID)
}

func TestSubmit_BlankCategoryRoutesToOther(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Lost key", "   ")

	assert.Equal(t, domain.DefaultCategory, view.Category)
	assert.Equal(t, "general@university.edu", view.DepartmentEmail)
	_, ok := h.ledger.Entry(domain.TableOther, view.ID)
	assert.True(t, ok)
}

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, student, SubmitInput{Title: " ", Description: "x"})
	assert.True(t, apperrors.IsCode(err, "BAD_REQUEST"))

	_, err = h.svc.Submit(ctx, student, SubmitInput{Title: "x"})
	assert.True(t, apperrors.IsCode(err, "BAD_REQUEST"))

	_, err = h.svc.Submit(ctx, tech, SubmitInput{Title: "x", Description: "y"})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	assert.Zero(t, h.ledger.Upserts)
}

func TestSubmit_LedgerFailureIsAbsorbed(t *testing.T) {
	h := newHarness(t)
	h.ledger.UpsertErr = &repository.LedgerError{Op: "upsert", Table: "technology_dept", Err: errors.New("relation does not exist")}

	view := h.submit(t, "Projector", "technology")

	assert.Equal(t, domain.TokenPending, view.Status)
	stored, err := h.complaints.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, int64(1), h.metrics.Snapshot().LedgerFailures["upsert"])
}

func TestUpdateStatus_ResolvesAndMirrors(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")

	h.now = h.now.Add(48 * time.Hour)
	updated, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, "resolved")
	require.NoError(t, err)

	assert.Equal(t, domain.TokenResolved, updated.Status)
	assert.Equal(t, "2024-03-11", updated.ResolvedAt)
	assert.Equal(t, "2024-03-11", updated.LastUpdated)
	assert.Equal(t, "2024-03-09", updated.SubmittedAt)
	assert.Equal(t, domain.DeptStatusResolved, updated.DepartmentStatus)
	assert.Equal(t, domain.RemarkDepartmentUpdate, updated.DepartmentRemarks)

	stored, err := h.complaints.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)

	last := h.events[len(h.events)-1]
	assert.Equal(t, events.EventComplaintStatusChanged, last.Type)
	payload := last.Payload.(events.ComplaintStatusChangedPayload)
	assert.Equal(t, domain.TokenPending, payload.OldStatus)
	assert.Equal(t, domain.TokenResolved, payload.NewStatus)
}

func TestUpdateStatus_TokenMappings(t *testing.T) {
	cases := []struct {
		token  string
		status domain.StatusToken
		dept   domain.DepartmentStatus
	}{
		{"in-progress", domain.TokenInProgress, domain.DeptStatusInProgress},
		{"sent-to-dept", domain.TokenSentToDept, domain.DeptStatusPending},
		{"dept-confirmed", domain.TokenDeptConfirmed, domain.DeptStatusConfirmed},
		{"pending", domain.TokenPending, domain.DeptStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			h := newHarness(t)
			view := h.submit(t, "Wifi", "technology")

			updated, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.status, updated.Status)
			assert.Equal(t, tc.dept, updated.DepartmentStatus)
			assert.Empty(t, updated.ResolvedAt)
		})
	}
}

func TestUpdateStatus_ReResolutionOverwritesResolvedAt(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	ctx := context.Background()

	_, err := h.svc.UpdateStatus(ctx, tech, view.ID, "resolved")
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, tech, view.ID, "in-progress")
	require.NoError(t, err)

	h.now = h.now.Add(72 * time.Hour)
	again, err := h.svc.UpdateStatus(ctx, tech, view.ID, "resolved")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-12", again.ResolvedAt)
}

func TestUpdateStatus_ResolvedAtKeptWhenReopened(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	ctx := context.Background()

	_, err := h.svc.UpdateStatus(ctx, tech, view.ID, "resolved")
	require.NoError(t, err)
	reopened, err := h.svc.UpdateStatus(ctx, tech, view.ID, "in-progress")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", reopened.ResolvedAt)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Broken light", "facilities")
	ctx := context.Background()
	upsertsBefore := h.ledger.Upserts

	_, err := h.svc.UpdateStatus(ctx, tech, 999, "resolved")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = h.svc.UpdateStatus(ctx, tech, view.ID, "resolved")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = h.svc.UpdateStatus(ctx, admin, view.ID, "resolved")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = h.svc.UpdateStatus(ctx, student, view.ID, "resolved")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	facilities := domain.Actor{UserID: 4, Role: domain.RoleDepartment, DepartmentID: "Facilities"}
	_, err = h.svc.UpdateStatus(ctx, facilities, view.ID, "")
	assert.True(t, apperrors.IsCode(err, "BAD_REQUEST"))

	_, err = h.svc.UpdateStatus(ctx, facilities, view.ID, "closed")
	assert.True(t, apperrors.IsCode(err, "BAD_REQUEST"))

	stored, err := h.complaints.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, upsertsBefore, h.ledger.Upserts)
}

func TestUpdateStatus_AcceptsSpellingVariantsAndDepartmentKeyVariants(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Cold food", "food-services")
	dining := domain.Actor{UserID: 5, Role: domain.RoleDepartment, DepartmentID: "Food Services"}

	updated, err := h.svc.UpdateStatus(context.Background(), dining, view.ID, "In_Progress")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenInProgress, updated.Status)

	entry, ok := h.ledger.Entry(domain.TableFoodServices, view.ID)
	require.True(t, ok)
	assert.Equal(t, domain.DeptStatusInProgress, entry.Status)
}

func TestUpdateStatus_CanonicalWriteFailureSkipsLedger(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	h.complaints.UpdateErr = errors.New("connection reset")
	upsertsBefore := h.ledger.Upserts

	_, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, "resolved")
	require.Error(t, err)
	assert.Equal(t, upsertsBefore, h.ledger.Upserts)
}

func TestUpdateStatus_LedgerFailureKeepsCanonicalUpdate(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	h.ledger.UpsertErr = errors.New("ledger down")

	updated, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, "dept-confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenDeptConfirmed, updated.Status)
	// the previous ledger row is still visible
	assert.Equal(t, domain.DeptStatusPending, updated.DepartmentStatus)

	stored, err := h.complaints.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeptConfirmed, stored.Status)
}

func TestView_LedgerReadFailureFallsBackToDefaults(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	_, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, "resolved")
	require.NoError(t, err)
	h.ledger.ReadErr = errors.New("relation does not exist")

	got, err := h.svc.Get(context.Background(), admin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenResolved, got.Status)
	assert.Equal(t, domain.DeptStatusPending, got.DepartmentStatus)
	assert.Empty(t, got.DepartmentRemarks)
	assert.Equal(t, int64(1), h.metrics.Snapshot().LedgerFailures["read"])
}

func TestPushNotification_NotifiesAndAnnotatesLedger(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	_, err := h.svc.UpdateStatus(context.Background(), tech, view.ID, "in-progress")
	require.NoError(t, err)

	ack, err := h.svc.PushNotification(context.Background(), admin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, ack.ComplaintID)
	assert.True(t, ack.Delivered)

	require.Len(t, h.notifier.Sent, 1)
	assert.Equal(t, "it@university.edu", h.notifier.Sent[0].To)
	assert.Equal(t, "New Complaint: Wifi", h.notifier.Sent[0].Subject)
	assert.Contains(t, h.notifier.Sent[0].Body, "http://localhost:8092/complaints/1")

	entry, ok := h.ledger.Entry(domain.TableTechnology, view.ID)
	require.True(t, ok)
	assert.Equal(t, domain.DeptStatusPending, entry.Status)
	assert.Equal(t, domain.RemarkAdminPrioritized, entry.Remarks)

	stored, err := h.complaints.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
}

func TestPushNotification_NotifierFailureIsAbsorbed(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")
	h.notifier.Err = errors.New("smtp unavailable")

	ack, err := h.svc.PushNotification(context.Background(), admin, view.ID)
	require.NoError(t, err)
	assert.False(t, ack.Delivered)
	assert.Equal(t, int64(1), h.metrics.Snapshot().NotificationFailures)

	entry, ok := h.ledger.Entry(domain.TableTechnology, view.ID)
	require.True(t, ok)
	assert.Equal(t, domain.RemarkAdminPrioritized, entry.Remarks)
}

func TestPushNotification_SkipsBlankEmail(t *testing.T) {
	h := newHarness(t)
	legacy := &domain.Complaint{OwnerID: 7, Title: "Old", Category: "other", Status: domain.StatusPending}
	require.NoError(t, h.complaints.Create(context.Background(), legacy))

	ack, err := h.svc.PushNotification(context.Background(), admin, legacy.ID)
	require.NoError(t, err)
	assert.False(t, ack.Delivered)
	assert.Empty(t, h.notifier.Sent)
	_, ok := h.ledger.Entry(domain.TableOther, legacy.ID)
	assert.True(t, ok)
}

func TestPushNotification_Rejections(t *testing.T) {
	h := newHarness(t)
	view := h.submit(t, "Wifi", "technology")

	_, err := h.svc.PushNotification(context.Background(), admin, 404)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = h.svc.PushNotification(context.Background(), tech, view.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	assert.Empty(t, h.notifier.Sent)
}

func TestListings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.submit(t, "Wifi", "technology")
	h.submit(t, "Light", "facilities")
	other := domain.Actor{UserID: 8, Role: domain.RoleStudent}
	_, err := h.svc.Submit(ctx, other, SubmitInput{Title: "Laptop", Category: "Technology", Description: "d"})
	require.NoError(t, err)

	mine, err := h.svc.ListForOwner(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := h.svc.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dept, err := h.svc.ListForDepartment(ctx, tech)
	require.NoError(t, err)
	require.Len(t, dept, 2)
	for _, v := range dept {
		assert.Equal(t, domain.TableTechnology, domain.TableFor(v.Category))
	}

	_, err = h.svc.ListAll(ctx, student)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	_, err = h.svc.ListForDepartment(ctx, domain.Actor{Role: domain.RoleDepartment})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	_, err = h.svc.ListForOwner(ctx, admin)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestGet_AccessRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.submit(t, "Wifi", "technology")

	for _, actor := range []domain.Actor{student, tech, admin} {
		got, err := h.svc.Get(ctx, actor, view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	}

	stranger := domain.Actor{UserID: 99, Role: domain.RoleStudent}
	_, err := h.svc.Get(ctx, stranger, view.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	facilities := domain.Actor{UserID: 4, Role: domain.RoleDepartment, DepartmentID: "facilities"}
	_, err = h.svc.Get(ctx, facilities, view.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = h.svc.Get(ctx, admin, 12345)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
