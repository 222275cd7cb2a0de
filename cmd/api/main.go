package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"bizplatform/config"
	_ "bizplatform/docs"
	authadapter "bizplatform/internal/adapters/auth"
	emailadapter "bizplatform/internal/adapters/email"
	delivery "bizplatform/internal/delivery/http"
	"bizplatform/internal/delivery/http/controllers"
	"bizplatform/internal/delivery/http/middleware"
	"bizplatform/internal/repository/postgres"
	"bizplatform/internal/services"
)

// @title BizPlatform API
// @version 1.0
// @description Company invitation and onboarding service.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}
	cancel()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	employeeRepo := postgres.NewEmployeeRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)

	// Adapters
	hasher := authadapter.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := authadapter.NewJWTIssuer(cfg.JWTSecret)
	verifier := authadapter.NewJWTVerifier(cfg.JWTSecret)
	mailer, err := emailadapter.NewMailer(emailadapter.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: emailadapter.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := emailadapter.NewTemplateRenderer()

	// Services
	emailService := services.NewEmailService(mailer, renderer)
	authService := services.NewAuthService(userRepo, hasher, issuer, cfg.JWTExpiry, emailService, logger)
	invitationService := services.NewInvitationService(
		invitationRepo, companyRepo, departmentRepo, employeeRepo, userRepo, cfg.ContextTimeout,
	)

	// Delivery
	authController := controllers.NewAuthController(logger, authService)
	invitationController := controllers.NewInvitationController(logger, invitationService)
	mux := delivery.NewRouter(authController, invitationController, verifier, logger)

	handler := middleware.CORS(cfg.CORSOrigins,
		middleware.RequestID(
			middleware.LoggingMiddleware(logger, mux),
		),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
