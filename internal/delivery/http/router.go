package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"bizplatform/internal/delivery/http/controllers"
	"bizplatform/internal/delivery/http/middleware"
	"bizplatform/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	authController *controllers.AuthController,
	invitationController *controllers.InvitationController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Invitations
	mux.HandleFunc("POST /invitations", auth(invitationController.CreateInvitation))
	mux.HandleFunc("GET /invitations/my", auth(invitationController.ListMyInvitations))
	mux.HandleFunc("POST /invitations/accept", auth(invitationController.AcceptInvitation))
	mux.HandleFunc("POST /invitations/{invitationID}/decline", auth(invitationController.DeclineInvitation))
	mux.HandleFunc("GET /companies/{companyID}/invitations", auth(invitationController.ListCompanyInvitations))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
