package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	UpdateStatus(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Complaint, error)
	ListByDepartment(ctx context.Context, departmentKey string) ([]domain.Complaint, error)
	ListAll(ctx context.Context) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, user_id, title, category, description, status, department_email,
               created_at, updated_at, resolved_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (user_id, title, category, description, status, department_email, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		complaint.OwnerID,
		complaint.Title,
		complaint.Category,
		complaint.Description,
		complaint.Status,
		complaint.DepartmentEmail,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	).Scan(&complaint.ID)
}

// UpdateStatus persists the status fields only; the rest of a complaint is immutable.
func (r *complaintRepository) UpdateStatus(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET status=$1, updated_at=$2, resolved_at=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		complaint.Status,
		complaint.UpdatedAt,
		complaint.ResolvedAt,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, err
	}
	if len(complaints) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &complaints[0], nil
}

func (r *complaintRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

// ListByDepartment matches categories using the same squashing as domain.NormalizeDepartmentKey.
func (r *complaintRepository) ListByDepartment(ctx context.Context, departmentKey string) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints
        WHERE regexp_replace(LOWER(category), '[[:space:]_-]+', '', 'g') = $1
        ORDER BY created_at DESC`
	return r.list(ctx, query, departmentKey)
}

func (r *complaintRepository) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *complaintRepository) list(ctx context.Context, query string, args ...any) ([]domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.OwnerID,
			&complaint.Title,
			&complaint.Category,
			&complaint.Description,
			&complaint.Status,
			&complaint.DepartmentEmail,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
			&complaint.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
