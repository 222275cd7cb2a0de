package domain

import (
	"context"
	"time"
)

// Company is a tenant. The invitation flow references companies but never
// creates or deletes them.
// swagger:model Company
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Department is an optional org unit within a company.
// swagger:model Department
type Department struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyRepository defines the interface for company storage.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*Company, error)
	// IsAdmin reports whether the user may manage the company: the company
	// owner, or an active employee with role admin. Single query so the two
	// capability paths cannot drift apart.
	IsAdmin(ctx context.Context, companyID, userID string) (bool, error)
}

// DepartmentRepository defines the interface for department storage.
type DepartmentRepository interface {
	// GetByIDForCompany returns the department only if it belongs to the
	// given company; ErrNotFound otherwise.
	GetByIDForCompany(ctx context.Context, departmentID, companyID string) (*Department, error)
}
