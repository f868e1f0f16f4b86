package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintSubmitted     EventType = "complaint_submitted"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintPrioritized   EventType = "complaint_prioritized"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID       int64       `json:"user_id"`
	Role         domain.Role `json:"role"`
	DepartmentID string      `json:"department_id,omitempty"`
}

// ActorFrom copies the lifecycle actor into event form.
func ActorFrom(a domain.Actor) Actor {
	return Actor{UserID: a.UserID, Role: a.Role, DepartmentID: a.DepartmentID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID int64       `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintSubmittedPayload payload.
type ComplaintSubmittedPayload struct {
	Title           string         `json:"title"`
	Category        string         `json:"category"`
	Table           domain.TableID `json:"table"`
	DepartmentEmail string         `json:"department_email"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.StatusToken `json:"old_status"`
	NewStatus domain.StatusToken `json:"new_status"`
}

// ComplaintPrioritizedPayload payload.
type ComplaintPrioritizedPayload struct {
	DepartmentEmail string `json:"department_email"`
	Delivered       bool   `json:"delivered"`
}
