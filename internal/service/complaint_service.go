package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintService coordinates the complaint lifecycle. Every canonical mutation is written to
// the complaint store first and then mirrored into the department ledger on a best-effort basis.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	ledger      repository.DepartmentLedger
	notifier    notify.Notifier
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	emailDomain string
	baseURL     string
	now         func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo         repository.ComplaintRepository
	Ledger                repository.DepartmentLedger
	Notifier              notify.Notifier
	Dispatcher            events.Dispatcher
	Metrics               *observability.Metrics
	Logger                *zap.Logger
	DepartmentEmailDomain string
	PublicBaseURL         string
	Clock                 func() time.Time
}

// SubmitInput describes a new complaint.
type SubmitInput struct {
	Title       string
	Category    string
	Description string
}

// ComplaintView is the caller-facing shape of a complaint joined with its ledger entry.
type ComplaintView struct {
	ID                int64
	Title             string
	Category          string
	Description       string
	Status            domain.StatusToken
	DepartmentEmail   string
	SubmittedAt       string
	LastUpdated       string
	ResolvedAt        string
	DepartmentStatus  domain.DepartmentStatus
	DepartmentRemarks string
}

// PushAck acknowledges an admin push.
type PushAck struct {
	ComplaintID int64
	Delivered   bool
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ComplaintService{
		complaints:  deps.ComplaintRepo,
		ledger:      deps.Ledger,
		notifier:    deps.Notifier,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		emailDomain: deps.DepartmentEmailDomain,
		baseURL:     deps.PublicBaseURL,
		now:         clock,
	}
}

// Submit records a new Pending complaint for a student.
func (s *ComplaintService) Submit(ctx context.Context, actor domain.Actor, input SubmitInput) (*ComplaintView, error) {
	if !actor.IsStudent() {
		return nil, apperrors.NewForbidden("only students can submit complaints")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	now := s.now()
	complaint := &domain.Complaint{
		OwnerID:         actor.UserID,
		Title:           title,
		Category:        category,
		Description:     description,
		Status:          domain.StatusPending,
		DepartmentEmail: domain.DepartmentEmailFor(category, s.emailDomain),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	s.mirror(ctx, complaint, domain.DeptStatusPending, "")
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintSubmitted,
		ComplaintID: complaint.ID,
		Actor:       events.ActorFrom(actor),
		Payload: events.ComplaintSubmittedPayload{
			Title:           complaint.Title,
			Category:        complaint.Category,
			Table:           domain.TableFor(complaint.Category),
			DepartmentEmail: complaint.DepartmentEmail,
		},
	})
	return s.view(ctx, complaint), nil
}

// ListForOwner returns the acting student's complaints.
func (s *ComplaintService) ListForOwner(ctx context.Context, actor domain.Actor) ([]ComplaintView, error) {
	if !actor.IsStudent() {
		return nil, apperrors.NewForbidden("student role required")
	}
	complaints, err := s.complaints.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, complaints), nil
}

// ListAll returns every complaint to an admin.
func (s *ComplaintService) ListAll(ctx context.Context, actor domain.Actor) ([]ComplaintView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	complaints, err := s.complaints.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, complaints), nil
}

// ListForDepartment returns the complaints whose category matches the acting department.
func (s *ComplaintService) ListForDepartment(ctx context.Context, actor domain.Actor) ([]ComplaintView, error) {
	key := domain.NormalizeDepartmentKey(actor.DepartmentID)
	if !actor.IsDepartment() || key == "" {
		return nil, apperrors.NewForbidden("department role required")
	}
	complaints, err := s.complaints.ListByDepartment(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, complaints), nil
}

// Get returns one complaint to its owner, its department, or an admin.
func (s *ComplaintService) Get(ctx context.Context, actor domain.Actor, id int64) (*ComplaintView, error) {
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case actor.IsStudent() && complaint.OwnerID == actor.UserID:
	case actor.IsDepartment() && domain.SameDepartment(actor.DepartmentID, complaint.Category):
	default:
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.view(ctx, complaint), nil
}

// UpdateStatus applies a department's status token to a complaint in its category.
// Admins and students are rejected; the admin path only ever annotates the ledger.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, rawToken string) (*ComplaintView, error) {
	if actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admins cannot modify complaint status")
	}
	if !actor.IsDepartment() {
		return nil, apperrors.NewForbidden("department role required")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.SameDepartment(actor.DepartmentID, complaint.Category) {
		return nil, apperrors.NewForbidden("cannot manage other department complaints")
	}
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.NewValidationError("missing status", nil)
	}
	token, ok := domain.ParseStatusToken(rawToken)
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{
			"status":  rawToken,
			"allowed": domain.StatusTokens,
		})
	}

	oldToken := complaint.Status.Token()
	complaint.ApplyStatus(token, s.now())
	if err := s.complaints.UpdateStatus(ctx, complaint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": id})
		}
		return nil, err
	}

	s.mirror(ctx, complaint, domain.DepartmentLabelFor(token), domain.RemarkDepartmentUpdate)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: complaint.ID,
		Actor:       events.ActorFrom(actor),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: oldToken,
			NewStatus: token,
		},
	})
	return s.view(ctx, complaint), nil
}

// PushNotification lets an admin escalate a complaint: the department is notified and the
// ledger remarks are annotated. The canonical status is left untouched.
func (s *ComplaintService) PushNotification(ctx context.Context, actor domain.Actor, id int64) (*PushAck, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	delivered := s.notifyDepartment(ctx, complaint)
	s.mirror(ctx, complaint, domain.DeptStatusPending, domain.RemarkAdminPrioritized)
	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintPrioritized,
		ComplaintID: complaint.ID,
		Actor:       events.ActorFrom(actor),
		Payload: events.ComplaintPrioritizedPayload{
			DepartmentEmail: complaint.DepartmentEmail,
			Delivered:       delivered,
		},
	})
	return &PushAck{ComplaintID: complaint.ID, Delivered: delivered}, nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": id})
		}
		return nil, err
	}
	return complaint, nil
}

// mirror writes the ledger row for complaint. A failure is logged and counted, never returned.
func (s *ComplaintService) mirror(ctx context.Context, complaint *domain.Complaint, status domain.DepartmentStatus, remarks string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Upsert(ctx, complaint.ID, complaint.Category, status, remarks); err != nil {
		s.metrics.RecordLedgerFailure("upsert")
		s.logger.Warn("department ledger upsert failed",
			zap.Int64("complaint_id", complaint.ID),
			zap.String("table", domain.TableFor(complaint.Category).TableName()),
			zap.Error(err))
	}
}

func (s *ComplaintService) notifyDepartment(ctx context.Context, complaint *domain.Complaint) bool {
	if s.notifier == nil || strings.TrimSpace(complaint.DepartmentEmail) == "" {
		s.logger.Info("department notification skipped", zap.Int64("complaint_id", complaint.ID))
		return false
	}
	subject, body := notify.ComplaintMessage(complaint, s.baseURL)
	if err := s.notifier.Notify(ctx, complaint.DepartmentEmail, subject, body); err != nil {
		s.metrics.RecordNotificationFailure()
		s.logger.Warn("department notification failed",
			zap.Int64("complaint_id", complaint.ID),
			zap.String("to", complaint.DepartmentEmail),
			zap.Error(err))
		return false
	}
	return true
}

func (s *ComplaintService) views(ctx context.Context, complaints []domain.Complaint) []ComplaintView {
	out := make([]ComplaintView, 0, len(complaints))
	for i := range complaints {
		out = append(out, *s.view(ctx, &complaints[i]))
	}
	return out
}

func (s *ComplaintService) view(ctx context.Context, complaint *domain.Complaint) *ComplaintView {
	entry := domain.DefaultLedgerEntry(complaint.ID)
	if s.ledger != nil {
		var err error
		entry, err = s.ledger.Read(ctx, complaint.ID, complaint.Category)
		if err != nil {
			s.metrics.RecordLedgerFailure("read")
			s.logger.Warn("department ledger read failed; using defaults",
				zap.Int64("complaint_id", complaint.ID),
				zap.Error(err))
		}
	}
	return &ComplaintView{
		ID:                complaint.ID,
		Title:             complaint.Title,
		Category:          complaint.Category,
		Description:       complaint.Description,
		Status:            complaint.Status.Token(),
		DepartmentEmail:   complaint.DepartmentEmail,
		SubmittedAt:       formatDate(&complaint.CreatedAt),
		LastUpdated:       formatDate(&complaint.UpdatedAt),
		ResolvedAt:        formatDate(complaint.ResolvedAt),
		DepartmentStatus:  entry.Status,
		DepartmentRemarks: entry.Remarks,
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
