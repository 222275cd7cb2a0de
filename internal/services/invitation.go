package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizplatform/internal/domain"
)

// invitationTTL is how long a new invitation stays redeemable.
const invitationTTL = 7 * 24 * time.Hour

// invitationTokenBytes is the entropy of an invitation token before encoding.
const invitationTokenBytes = 32

type invitationService struct {
	invitationRepo domain.InvitationRepository
	companyRepo    domain.CompanyRepository
	departmentRepo domain.DepartmentRepository
	employeeRepo   domain.EmployeeRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewInvitationService creates an InvitationService with the given repositories.
func NewInvitationService(
	invitationRepo domain.InvitationRepository,
	companyRepo domain.CompanyRepository,
	departmentRepo domain.DepartmentRepository,
	employeeRepo domain.EmployeeRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		companyRepo:    companyRepo,
		departmentRepo: departmentRepo,
		employeeRepo:   employeeRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// generateInvitationToken returns a URL-safe token with 256 bits of entropy.
// Uniqueness is enforced by the repository's unique constraint, not here.
func generateInvitationToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// canManageInvitations resolves the company and checks the caller's admin
// capability. Existence is checked before authorization, so a missing company
// returns ErrNotFound even to callers who could never have managed it.
func (s *invitationService) canManageInvitations(ctx context.Context, callerID, companyID string) (*domain.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	admin, err := s.companyRepo.IsAdmin(ctx, companyID, callerID)
	if err != nil {
		return nil, fmt.Errorf("check company admin: %w", err)
	}
	if !admin {
		return nil, domain.ErrForbidden
	}
	return company, nil
}

func (s *invitationService) CreateInvitation(ctx context.Context, callerID string, in domain.CreateInvitationInput) (*domain.InvitationWithNames, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.ErrInvalidInput
	}
	role := strings.TrimSpace(strings.ToLower(in.Role))
	if role == "" {
		role = domain.RoleEmployee
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidInput
	}

	company, err := s.canManageInvitations(ctx, callerID, in.CompanyID)
	if err != nil {
		return nil, err
	}

	var departmentName *string
	if in.DepartmentID != nil {
		dept, err := s.departmentRepo.GetByIDForCompany(ctx, *in.DepartmentID, in.CompanyID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get department: %w", err)
		}
		departmentName = &dept.Name
	}

	// Friendly pre-check; the real guarantee is the unique employee email
	// constraint and the partial unique index on pending invitations.
	exists, err := s.employeeRepo.ExistsActiveByCompanyAndEmail(ctx, in.CompanyID, email)
	if err != nil {
		return nil, fmt.Errorf("check existing employee: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyEmployee
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}

	now := s.now()
	inv := &domain.Invitation{
		Email:        email,
		CompanyID:    in.CompanyID,
		DepartmentID: in.DepartmentID,
		InvitedByID:  callerID,
		Role:         role,
		Position:     strings.TrimSpace(in.Position),
		Status:       domain.InvitationPending,
		Token:        token,
		ExpiresAt:    now.Add(invitationTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicatePendingInvitation) {
			return nil, domain.ErrDuplicatePendingInvitation
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	return &domain.InvitationWithNames{
		Invitation:     inv,
		CompanyName:    company.Name,
		DepartmentName: departmentName,
	}, nil
}

func (s *invitationService) AcceptInvitation(ctx context.Context, callerID, token string) (*domain.AcceptInvitationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get caller: %w", err)
	}
	if !strings.EqualFold(inv.Email, caller.Email) {
		return nil, domain.ErrForbidden
	}

	if inv.Status != domain.InvitationPending {
		return nil, fmt.Errorf("%w: invitation is %s", domain.ErrInvitationNotPending, inv.Status)
	}

	now := s.now()
	if inv.Expired(now) {
		// Persist the lazy transition before surfacing the error so a
		// subsequent read sees expired rather than a stale pending.
		if err := s.invitationRepo.MarkExpired(ctx, inv.ID, now); err != nil {
			return nil, fmt.Errorf("mark invitation expired: %w", err)
		}
		return nil, domain.ErrInvitationExpired
	}

	if _, err := s.employeeRepo.GetByCompanyAndUser(ctx, inv.CompanyID, callerID); err == nil {
		return nil, domain.ErrAlreadyEmployee
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing employee: %w", err)
	}

	// Display name placeholders come from the account; the employee can
	// refine them later through the profile path.
	emp := &domain.Employee{
		UserID:       callerID,
		CompanyID:    inv.CompanyID,
		DepartmentID: inv.DepartmentID,
		FirstName:    caller.Username,
		LastName:     "",
		Email:        caller.Email,
		Position:     inv.Position,
		Role:         inv.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.invitationRepo.Accept(ctx, inv, emp, callerID, now); err != nil {
		if errors.Is(err, domain.ErrInvitationNotPending) {
			// Lost the race to a concurrent accept.
			return nil, domain.ErrInvitationNotPending
		}
		if errors.Is(err, domain.ErrAlreadyEmployee) {
			return nil, domain.ErrAlreadyEmployee
		}
		return nil, fmt.Errorf("accept invitation: %w", err)
	}

	return &domain.AcceptInvitationResult{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
	}, nil
}

func (s *invitationService) DeclineInvitation(ctx context.Context, callerID, invitationID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get caller: %w", err)
	}
	if !strings.EqualFold(inv.Email, caller.Email) {
		return domain.ErrForbidden
	}

	// Policy: declining a declined invitation succeeds idempotently;
	// declining an accepted or expired one is a state conflict. A stale
	// pending invitation may still be declined.
	switch inv.Status {
	case domain.InvitationDeclined:
		return nil
	case domain.InvitationAccepted, domain.InvitationExpired:
		return fmt.Errorf("%w: invitation is %s", domain.ErrInvitationNotPending, inv.Status)
	}

	if err := s.invitationRepo.MarkDeclined(ctx, inv.ID, s.now()); err != nil {
		if errors.Is(err, domain.ErrInvitationNotPending) {
			return domain.ErrInvitationNotPending
		}
		return fmt.Errorf("decline invitation: %w", err)
	}
	return nil
}

func (s *invitationService) ListMyInvitations(ctx context.Context, callerID string) ([]*domain.InvitationWithNames, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get caller: %w", err)
	}

	invs, err := s.invitationRepo.ListPendingByEmail(ctx, strings.ToLower(caller.Email), s.now())
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.InvitationWithNames{}
	}
	return invs, nil
}

func (s *invitationService) ListCompanyInvitations(ctx context.Context, callerID, companyID, search string, params domain.PaginationParams) ([]*domain.InvitationWithNames, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.canManageInvitations(ctx, callerID, companyID); err != nil {
		return nil, 0, err
	}
	invs, total, err := s.invitationRepo.ListByCompanyID(ctx, companyID, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list company invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.InvitationWithNames{}
	}
	return invs, total, nil
}
