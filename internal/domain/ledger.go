package domain

import "time"

// LedgerEntry is the department-facing projection of a complaint.
type LedgerEntry struct {
	ComplaintID int64
	Status      DepartmentStatus
	Remarks     string
	UpdatedAt   *time.Time
}

// DefaultLedgerEntry is what readers see when no ledger row is available.
func DefaultLedgerEntry(complaintID int64) LedgerEntry {
	return LedgerEntry{ComplaintID: complaintID, Status: DeptStatusPending}
}

// Remarks written by the lifecycle actions.
const (
	RemarkDepartmentUpdate = "Updated by department"
	RemarkAdminPrioritized = "Prioritized by Admin - notification sent to department"
)
