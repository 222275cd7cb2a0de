package domain

import (
	"context"
	"errors"
	"time"
)

// InvitationStatus is the lifecycle state of a company invitation.
// Pending is the only initial state; the other three are terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Company roles an invitation may grant.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the invitation roles.
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleManager || role == RoleAdmin
}

// Sentinel errors for invitation operations.
var (
	// ErrDuplicatePendingInvitation: a pending invitation for the same
	// email and company already exists.
	ErrDuplicatePendingInvitation = errors.New("active invitation already exists for this email")
	// ErrInvitationNotPending: the invitation is in a terminal state and the
	// attempted transition is not allowed. Wrapped with the current status.
	ErrInvitationNotPending = errors.New("invitation is not pending")
	// ErrInvitationExpired: the invitation's expiry has passed. By the time
	// callers see this error the lazy transition to expired has been persisted.
	ErrInvitationExpired = errors.New("invitation has expired")
)

// Invitation is a pending, time-boxed, single-use offer of company
// membership, addressed to an email and redeemable via a secret token.
// Invitations are never deleted; terminal rows remain as an audit trail.
// swagger:model Invitation
type Invitation struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	CompanyID    string           `json:"company_id"`
	DepartmentID *string          `json:"department_id"`
	InvitedByID  string           `json:"invited_by_id"`
	AcceptedByID *string          `json:"accepted_by_id"`
	Role         string           `json:"role"`
	Position     string           `json:"position"`
	Status       InvitationStatus `json:"status"`
	Token        string           `json:"invitation_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	AcceptedAt   *time.Time       `json:"accepted_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Expired reports whether the invitation's expiry has passed at the given instant.
func (i *Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// InvitationWithNames bundles an invitation with company and department
// display names for list views.
type InvitationWithNames struct {
	*Invitation
	CompanyName    string  `json:"company_name"`
	DepartmentName *string `json:"department_name"`
}

// InvitationRepository defines storage operations for company invitations.
type InvitationRepository interface {
	// Create persists a new pending invitation. Returns
	// ErrDuplicatePendingInvitation when the partial unique index on
	// (email, company_id) where status = pending rejects the row.
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	// Accept atomically marks the invitation accepted and inserts the
	// employee row. The invitation update is guarded on status = pending;
	// if another transaction won the race, ErrInvitationNotPending is
	// returned and nothing is written. On success inv and emp are updated
	// in place with the committed state.
	Accept(ctx context.Context, inv *Invitation, emp *Employee, acceptedByID string, acceptedAt time.Time) error
	// MarkDeclined sets status to declined unless the invitation is already
	// in a terminal state other than declined, in which case it returns
	// ErrInvitationNotPending. Declining a declined invitation is a no-op
	// success.
	MarkDeclined(ctx context.Context, id string, now time.Time) error
	// MarkExpired lazily transitions a stale pending invitation to expired.
	// A no-op if the invitation is no longer pending.
	MarkExpired(ctx context.Context, id string, now time.Time) error
	// ListPendingByEmail returns pending, unexpired invitations addressed to
	// the email, with company and department names, oldest first.
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]*InvitationWithNames, error)
	// ListByCompanyID returns the company's invitations regardless of
	// status, newest first, optionally filtered by email substring.
	ListByCompanyID(ctx context.Context, companyID, search string, params PaginationParams) ([]*InvitationWithNames, int, error)
}

// CreateInvitationInput carries the caller-supplied fields for a new invitation.
type CreateInvitationInput struct {
	Email        string
	CompanyID    string
	DepartmentID *string
	Role         string
	Position     string
}

// AcceptInvitationResult is returned by a successful accept.
type AcceptInvitationResult struct {
	EmployeeID string `json:"employee_id"`
	CompanyID  string `json:"company_id"`
}

// InvitationService defines the invitation lifecycle operations.
type InvitationService interface {
	// CreateInvitation creates a pending invitation on behalf of callerID.
	// The caller must be the company owner or an active admin employee.
	CreateInvitation(ctx context.Context, callerID string, in CreateInvitationInput) (*InvitationWithNames, error)
	// AcceptInvitation redeems the invitation identified by the raw token
	// for the caller, creating their employee record.
	AcceptInvitation(ctx context.Context, callerID, token string) (*AcceptInvitationResult, error)
	// DeclineInvitation declines the invitation by id on behalf of the
	// caller, who must be the invitation's addressee.
	DeclineInvitation(ctx context.Context, callerID, invitationID string) error
	// ListMyInvitations returns the caller's pending, unexpired invitations.
	ListMyInvitations(ctx context.Context, callerID string) ([]*InvitationWithNames, error)
	// ListCompanyInvitations returns all of the company's invitations.
	// The caller must pass the same admin check as CreateInvitation.
	ListCompanyInvitations(ctx context.Context, callerID, companyID, search string, params PaginationParams) ([]*InvitationWithNames, int, error)
}
