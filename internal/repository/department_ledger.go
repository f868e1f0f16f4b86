package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrLedgerUnavailable is returned when the ledger has no database to talk to.
var ErrLedgerUnavailable = errors.New("department ledger not configured")

// LedgerDB is the connection provider the ledger needs. *pgxpool.Pool satisfies it.
type LedgerDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DepartmentLedger mirrors department-facing status and remarks into the per-category tables.
//
// The ledger is a convenience projection of complaints.status. Callers treat every error it
// returns as non-fatal.
type DepartmentLedger interface {
	Upsert(ctx context.Context, complaintID int64, category string, status domain.DepartmentStatus, remarks string) error
	// Read always returns a usable entry: the default {Pending, ""} when the row is missing or
	// the read failed. A non-nil error only explains why the default was used.
	Read(ctx context.Context, complaintID int64, category string) (domain.LedgerEntry, error)
}

// LedgerError describes a failed ledger operation.
type LedgerError struct {
	Op          string
	Table       string
	ComplaintID int64
	Err         error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s %s complaint %d: %v", e.Op, e.Table, e.ComplaintID, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

type departmentLedger struct {
	db LedgerDB
}

// NewDepartmentLedger builds the ledger over db. A nil db yields a ledger whose writes fail
// with ErrLedgerUnavailable and whose reads return defaults.
func NewDepartmentLedger(db LedgerDB) DepartmentLedger {
	return &departmentLedger{db: db}
}

// Upsert writes the row for complaintID in the table routed from category.
//
// This is check-then-act inside one transaction and is not atomic against a concurrent first
// write for the same complaint: both writers can observe "absent" and both INSERT. The
// UNIQUE(complaint_id) constraint rejects the second insert and that error surfaces here like
// any other ledger failure. Later upserts converge the row.
func (l *departmentLedger) Upsert(ctx context.Context, complaintID int64, category string, status domain.DepartmentStatus, remarks string) (err error) {
	table := domain.TableFor(category).TableName()
	if strings.TrimSpace(string(status)) == "" {
		status = domain.DeptStatusPending
	}
	if l.db == nil {
		return &LedgerError{Op: "upsert", Table: table, ComplaintID: complaintID, Err: ErrLedgerUnavailable}
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return &LedgerError{Op: "upsert", Table: table, ComplaintID: complaintID, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	exists := true
	var rowID int64
	selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE complaint_id=$1`, table)
	if scanErr := tx.QueryRow(ctx, selectQuery, complaintID).Scan(&rowID); scanErr != nil {
		if !errors.Is(scanErr, pgx.ErrNoRows) {
			return &LedgerError{Op: "upsert", Table: table, ComplaintID: complaintID, Err: scanErr}
		}
		exists = false
	}

	if exists {
		updateQuery := fmt.Sprintf(`UPDATE %s SET department_status=$1, remarks=$2, updated_at=NOW() WHERE complaint_id=$3`, table)
		_, err = tx.Exec(ctx, updateQuery, status, remarks, complaintID)
	} else {
		insertQuery := fmt.Sprintf(`INSERT INTO %s (complaint_id, department_status, remarks) VALUES ($1, $2, $3)`, table)
		_, err = tx.Exec(ctx, insertQuery, complaintID, status, remarks)
	}
	if err != nil {
		return &LedgerError{Op: "upsert", Table: table, ComplaintID: complaintID, Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return &LedgerError{Op: "upsert", Table: table, ComplaintID: complaintID, Err: err}
	}
	return nil
}

func (l *departmentLedger) Read(ctx context.Context, complaintID int64, category string) (domain.LedgerEntry, error) {
	entry := domain.DefaultLedgerEntry(complaintID)
	table := domain.TableFor(category).TableName()
	if l.db == nil {
		return entry, &LedgerError{Op: "read", Table: table, ComplaintID: complaintID, Err: ErrLedgerUnavailable}
	}

	var (
		status    *string
		remarks   *string
		updatedAt *time.Time
	)
	query := fmt.Sprintf(`SELECT department_status, remarks, updated_at FROM %s WHERE complaint_id=$1`, table)
	if err := l.db.QueryRow(ctx, query, complaintID).Scan(&status, &remarks, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entry, nil
		}
		return entry, &LedgerError{Op: "read", Table: table, ComplaintID: complaintID, Err: err}
	}

	if status != nil && strings.TrimSpace(*status) != "" {
		entry.Status = domain.DepartmentStatus(*status)
	}
	if remarks != nil {
		entry.Remarks = *remarks
	}
	entry.UpdatedAt = updatedAt
	return entry, nil
}
