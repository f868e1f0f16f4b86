package dto

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// ComplaintCreateRequest payload for POST /student/api/complaints.
type ComplaintCreateRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// StatusUpdateRequest payload for department status updates.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ComplaintResponse is the JSON view of a complaint and its department row.
type ComplaintResponse struct {
	ID                int64                   `json:"id"`
	Title             string                  `json:"title"`
	Category          string                  `json:"category"`
	Description       string                  `json:"description"`
	Status            domain.StatusToken      `json:"status"`
	DepartmentEmail   string                  `json:"departmentEmail"`
	SubmittedAt       string                  `json:"submittedAt"`
	LastUpdated       string                  `json:"lastUpdated"`
	ResolvedAt        string                  `json:"resolvedAt"`
	DepartmentStatus  domain.DepartmentStatus `json:"departmentStatus"`
	DepartmentRemarks string                  `json:"departmentRemarks"`
}

// PushResponse acknowledges an admin push.
type PushResponse struct {
	ID        int64  `json:"id"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message"`
}

// NewComplaintResponse maps a service view.
func NewComplaintResponse(v *service.ComplaintView) ComplaintResponse {
	return ComplaintResponse{
		ID:                v.ID,
		Title:             v.Title,
		Category:          v.Category,
		Description:       v.Description,
		Status:            v.Status,
		DepartmentEmail:   v.DepartmentEmail,
		SubmittedAt:       v.SubmittedAt,
		LastUpdated:       v.LastUpdated,
		ResolvedAt:        v.ResolvedAt,
		DepartmentStatus:  v.DepartmentStatus,
		DepartmentRemarks: v.DepartmentRemarks,
	}
}

// NewComplaintResponses maps a list of views.
func NewComplaintResponses(views []service.ComplaintView) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(views))
	for i := range views {
		out = append(out, NewComplaintResponse(&views[i]))
	}
	return out
}

// NewPushResponse maps a push acknowledgement.
func NewPushResponse(ack *service.PushAck) PushResponse {
	message := "department notified"
	if !ack.Delivered {
		message = "complaint prioritized; department notification not delivered"
	}
	return PushResponse{ID: ack.ComplaintID, Delivered: ack.Delivered, Message: message}
}
