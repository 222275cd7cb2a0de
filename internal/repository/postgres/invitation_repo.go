package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bizplatform/internal/domain"
)

// Constraint names from db/schema.sql. The partial unique index is what makes
// the duplicate-pending check race-safe under concurrent creates.
const (
	pendingInvitationConstraint   = "company_invitations_pending_email_key"
	employeeCompanyUserConstraint = "employees_company_user_key"
)

const invitationColumns = `id, email, company_id, department_id, invited_by_id, accepted_by_id,
		role, position, status, invitation_token, expires_at, accepted_at, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func scanInvitation(row interface{ Scan(...any) error }, inv *domain.Invitation) error {
	return row.Scan(
		&inv.ID, &inv.Email, &inv.CompanyID, &inv.DepartmentID, &inv.InvitedByID, &inv.AcceptedByID,
		&inv.Role, &inv.Position, &inv.Status, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO company_invitations
			(email, company_id, department_id, invited_by_id, role, position, status, invitation_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.Email, inv.CompanyID, inv.DepartmentID, inv.InvitedByID, inv.Role, inv.Position,
		inv.Status, inv.Token, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == pendingInvitationConstraint {
			return domain.ErrDuplicatePendingInvitation
		}
		return err
	}
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM company_invitations WHERE id = $1`
	inv := &domain.Invitation{}
	if err := scanInvitation(r.DB.QueryRowContext(ctx, query, id), inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM company_invitations WHERE invitation_token = $1`
	inv := &domain.Invitation{}
	if err := scanInvitation(r.DB.QueryRowContext(ctx, query, token), inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// Accept performs the onboarding dual write in one transaction: a
// status-guarded update of the invitation and the employee insert. The
// RowsAffected count of the guarded update is the success signal; when a
// concurrent accept already won, zero rows match and nothing is committed.
func (r *invitationRepository) Accept(ctx context.Context, inv *domain.Invitation, emp *domain.Employee, acceptedByID string, acceptedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE company_invitations
		SET status = $2, accepted_by_id = $3, accepted_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	res, err := tx.ExecContext(ctx, update,
		inv.ID, domain.InvitationAccepted, acceptedByID, acceptedAt, domain.InvitationPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvitationNotPending
	}

	insert := `
		INSERT INTO employees
			(user_id, company_id, department_id, first_name, last_name, email, position, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, insert,
		emp.UserID, emp.CompanyID, emp.DepartmentID, emp.FirstName, emp.LastName, emp.Email,
		emp.Position, emp.Role, emp.IsActive, emp.CreatedAt, emp.UpdatedAt,
	).Scan(&emp.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == employeeCompanyUserConstraint {
			return domain.ErrAlreadyEmployee
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept tx: %w", err)
	}
	inv.Status = domain.InvitationAccepted
	inv.AcceptedByID = &acceptedByID
	inv.AcceptedAt = &acceptedAt
	inv.UpdatedAt = acceptedAt
	return nil
}

func (r *invitationRepository) MarkDeclined(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE company_invitations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($2, $4)
	`
	res, err := r.DB.ExecContext(ctx, query, id, domain.InvitationDeclined, now, domain.InvitationPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvitationNotPending
	}
	return nil
}

func (r *invitationRepository) MarkExpired(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE company_invitations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	_, err := r.DB.ExecContext(ctx, query, id, domain.InvitationExpired, now, domain.InvitationPending)
	return err
}

func (r *invitationRepository) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]*domain.InvitationWithNames, error) {
	query := `
		SELECT i.id, i.email, i.company_id, i.department_id, i.invited_by_id, i.accepted_by_id,
			i.role, i.position, i.status, i.invitation_token, i.expires_at, i.accepted_at,
			i.created_at, i.updated_at, c.name, d.name
		FROM company_invitations i
		JOIN companies c ON c.id = i.company_id
		LEFT JOIN departments d ON d.id = i.department_id
		WHERE i.email = $1 AND i.status = $2 AND i.expires_at > $3
		ORDER BY i.created_at, i.id
	`
	rows, err := r.DB.QueryContext(ctx, query, email, domain.InvitationPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitationsWithNames(rows)
}

func (r *invitationRepository) ListByCompanyID(ctx context.Context, companyID, search string, params domain.PaginationParams) ([]*domain.InvitationWithNames, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM company_invitations
		WHERE company_id = $1 AND ($2 = '' OR email ILIKE '%' || $2 || '%')
	`
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, companyID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT i.id, i.email, i.company_id, i.department_id, i.invited_by_id, i.accepted_by_id,
			i.role, i.position, i.status, i.invitation_token, i.expires_at, i.accepted_at,
			i.created_at, i.updated_at, c.name, d.name
		FROM company_invitations i
		JOIN companies c ON c.id = i.company_id
		LEFT JOIN departments d ON d.id = i.department_id
		WHERE i.company_id = $1 AND ($2 = '' OR i.email ILIKE '%' || $2 || '%')
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, companyID, search, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	invs, err := collectInvitationsWithNames(rows)
	if err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

func collectInvitationsWithNames(rows *sql.Rows) ([]*domain.InvitationWithNames, error) {
	invs := make([]*domain.InvitationWithNames, 0)
	for rows.Next() {
		inv := &domain.Invitation{}
		item := &domain.InvitationWithNames{Invitation: inv}
		var deptName sql.NullString
		err := rows.Scan(
			&inv.ID, &inv.Email, &inv.CompanyID, &inv.DepartmentID, &inv.InvitedByID, &inv.AcceptedByID,
			&inv.Role, &inv.Position, &inv.Status, &inv.Token, &inv.ExpiresAt, &inv.AcceptedAt,
			&inv.CreatedAt, &inv.UpdatedAt, &item.CompanyName, &deptName,
		)
		if err != nil {
			return nil, err
		}
		if deptName.Valid {
			item.DepartmentName = &deptName.String
		}
		invs = append(invs, item)
	}
	return invs, rows.Err()
}
