package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bizplatform/internal/delivery/http/helpers"
	"bizplatform/internal/delivery/http/middleware"
	"bizplatform/internal/domain"
)

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// writeInvitationError maps domain errors to HTTP status codes and writes the
// JSON error envelope. Unexpected errors are logged and reported as 500.
func (c *InvitationController) writeInvitationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicatePendingInvitation),
		errors.Is(err, domain.ErrAlreadyEmployee),
		errors.Is(err, domain.ErrInvitationNotPending),
		errors.Is(err, domain.ErrInvitationExpired):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// CreateInvitationRequest is the request body for POST /invitations.
type CreateInvitationRequest struct {
	Email        string  `json:"email"`
	CompanyID    string  `json:"company_id"`
	DepartmentID *string `json:"department_id"`
	Role         string  `json:"role"` // optional: defaults to "employee"
	Position     string  `json:"position"`
}

// Validate implements helpers.Validator.
func (req CreateInvitationRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if strings.TrimSpace(req.CompanyID) == "" {
		errs = append(errs, "company_id is required")
	}
	if req.DepartmentID != nil && strings.TrimSpace(*req.DepartmentID) == "" {
		errs = append(errs, "department_id must not be empty when set")
	}
	return errs
}

// CreateInvitation godoc
// @Summary Invite a user to a company
// @Description Creates a pending invitation for the given email. Caller must be the company owner or an active admin employee. At most one pending invitation may exist per (email, company).
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInvitationRequest true "Invitation data"
// @Success 201 {object} helpers.APIResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [post]
func (c *InvitationController) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	inv, err := c.Service.CreateInvitation(r.Context(), userID, domain.CreateInvitationInput{
		Email:        req.Email,
		CompanyID:    strings.TrimSpace(req.CompanyID),
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		Position:     strings.TrimSpace(req.Position),
	})
	if err != nil {
		c.writeInvitationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// AcceptInvitationRequest is the request body for POST /invitations/accept.
type AcceptInvitationRequest struct {
	InvitationToken string `json:"invitation_token"`
}

// Validate implements helpers.Validator.
func (req AcceptInvitationRequest) Validate() []string {
	if strings.TrimSpace(req.InvitationToken) == "" {
		return []string{"invitation_token is required"}
	}
	return nil
}

// AcceptInvitation godoc
// @Summary Accept an invitation by token
// @Description Accepts the pending invitation identified by the opaque token and creates the employee record atomically. The caller's account email must match the invitation email.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AcceptInvitationRequest true "Invitation token"
// @Success 200 {object} helpers.APIResponse "data contains employee_id and company_id"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/accept [post]
func (c *InvitationController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AcceptInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.AcceptInvitation(r.Context(), userID, strings.TrimSpace(req.InvitationToken))
	if err != nil {
		c.writeInvitationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// DeclineInvitation godoc
// @Summary Decline an invitation
// @Description Declines the pending invitation addressed to the caller. Declining an already declined invitation succeeds without change.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} helpers.APIResponse "data contains the invitation id and status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/decline [post]
func (c *InvitationController) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invitationID := r.PathValue("invitationID")
	if invitationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing invitationID")
		return
	}

	if err := c.Service.DeclineInvitation(r.Context(), userID, invitationID); err != nil {
		c.writeInvitationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{
		"invitation_id": invitationID,
		"status":        string(domain.InvitationDeclined),
	})
}

// ListMyInvitations godoc
// @Summary List pending invitations for the current user
// @Description Returns pending, unexpired invitations addressed to the caller's account email, with company and department names. Tokens are included so the caller can accept.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the invitation list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/my [get]
func (c *InvitationController) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	invitations, err := c.Service.ListMyInvitations(r.Context(), userID)
	if err != nil {
		c.writeInvitationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invitations)
}

// CompanyInvitationsResponse is the data payload for GET /companies/{companyID}/invitations.
type CompanyInvitationsResponse struct {
	Invitations []*domain.InvitationWithNames `json:"invitations"`
	Pagination  helpers.PaginationMeta        `json:"pagination"`
}

// ListCompanyInvitations godoc
// @Summary List a company's invitations
// @Description Returns all invitations for the company regardless of status, newest first, with optional email search and pagination. Caller must be the company owner or an active admin employee.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param companyID path string true "Company ID"
// @Param search query string false "Substring match on invitation email"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains invitations and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /companies/{companyID}/invitations [get]
func (c *InvitationController) ListCompanyInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	companyID := r.PathValue("companyID")
	if companyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing companyID")
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	params := helpers.ParsePagination(r)

	invitations, total, err := c.Service.ListCompanyInvitations(r.Context(), userID, companyID, search, params)
	if err != nil {
		c.writeInvitationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CompanyInvitationsResponse{
		Invitations: invitations,
		Pagination:  helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
