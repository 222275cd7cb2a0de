package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bizplatform/internal/domain"
)

type departmentRepository struct {
	DB *sql.DB
}

func NewDepartmentRepository(db *sql.DB) domain.DepartmentRepository {
	return &departmentRepository{
		DB: db,
	}
}

func (r *departmentRepository) GetByIDForCompany(ctx context.Context, departmentID, companyID string) (*domain.Department, error) {
	query := `
		SELECT id, company_id, name, is_active, created_at, updated_at
		FROM departments
		WHERE id = $1 AND company_id = $2
	`
	d := &domain.Department{}
	err := r.DB.QueryRowContext(ctx, query, departmentID, companyID).
		Scan(&d.ID, &d.CompanyID, &d.Name, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}
