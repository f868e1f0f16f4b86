package domain

import "time"

// DefaultCategory is applied when a complaint is submitted without a category.
const DefaultCategory = "other"

// Complaint is the canonical record of a student complaint.
type Complaint struct {
	ID              int64
	OwnerID         int64
	Title           string
	Category        string
	Description     string
	Status          CanonicalStatus
	DepartmentEmail string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

// ApplyStatus sets the canonical status for token and stamps the mutation time. Entering
// Resolved always stamps ResolvedAt; nothing clears it.
func (c *Complaint) ApplyStatus(token StatusToken, now time.Time) {
	c.Status = CanonicalLabel(token)
	c.UpdatedAt = now
	if c.Status == StatusResolved {
		resolvedAt := now
		c.ResolvedAt = &resolvedAt
	}
}
