package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bizplatform/internal/domain"
)

type employeeRepository struct {
	DB *sql.DB
}

func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{
		DB: db,
	}
}

func (r *employeeRepository) GetByCompanyAndUser(ctx context.Context, companyID, userID string) (*domain.Employee, error) {
	query := `
		SELECT id, user_id, company_id, department_id, first_name, last_name, email, position, role, is_active, created_at, updated_at
		FROM employees
		WHERE company_id = $1 AND user_id = $2
	`
	e := &domain.Employee{}
	err := r.DB.QueryRowContext(ctx, query, companyID, userID).Scan(
		&e.ID, &e.UserID, &e.CompanyID, &e.DepartmentID, &e.FirstName, &e.LastName,
		&e.Email, &e.Position, &e.Role, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *employeeRepository) ExistsActiveByCompanyAndEmail(ctx context.Context, companyID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM employees
			WHERE company_id = $1 AND lower(email) = lower($2) AND is_active
		)
	`
	var ok bool
	if err := r.DB.QueryRowContext(ctx, query, companyID, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
