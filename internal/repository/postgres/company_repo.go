package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bizplatform/internal/domain"
)

type companyRepository struct {
	DB *sql.DB
}

func NewCompanyRepository(db *sql.DB) domain.CompanyRepository {
	return &companyRepository{
		DB: db,
	}
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, name, description, owner_id, is_active, created_at, updated_at
		FROM companies
		WHERE id = $1
	`
	c := &domain.Company{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// IsAdmin covers both capability paths in one query: company ownership and an
// active admin employee row.
func (r *companyRepository) IsAdmin(ctx context.Context, companyID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM companies
			WHERE id = $1 AND owner_id = $2
			UNION ALL
			SELECT 1 FROM employees
			WHERE company_id = $1 AND user_id = $2 AND role = $3 AND is_active
		)
	`
	var ok bool
	if err := r.DB.QueryRowContext(ctx, query, companyID, userID, domain.RoleAdmin).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
