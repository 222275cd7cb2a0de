package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyEmployee is returned when the target of an invitation, or the
// caller of an accept, is already an active employee of the company.
var ErrAlreadyEmployee = errors.New("already an employee of this company")

// Employee is a materialized membership of a user within a company. Employees
// are created only when an invitation is accepted.
// swagger:model Employee
type Employee struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CompanyID    string    `json:"company_id"`
	DepartmentID *string   `json:"department_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EmployeeRepository defines the interface for employee storage. Employee
// creation happens inside InvitationRepository.Accept so that it commits
// atomically with the invitation's status change.
type EmployeeRepository interface {
	GetByCompanyAndUser(ctx context.Context, companyID, userID string) (*Employee, error)
	// ExistsActiveByCompanyAndEmail reports whether an active employee with
	// the given email already exists in the company.
	ExistsActiveByCompanyAndEmail(ctx context.Context, companyID, email string) (bool, error)
}
