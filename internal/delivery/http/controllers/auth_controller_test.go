package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizplatform/internal/delivery/http/helpers"
	"bizplatform/internal/domain"
)

type mockAuthService struct {
	user  *domain.User
	token string
	err   error

	gotEmail    string
	gotPassword string
	gotUsername string
}

func (m *mockAuthService) SignUp(_ context.Context, email, password, username string) (*domain.User, error) {
	m.gotEmail = email
	m.gotPassword = password
	m.gotUsername = username
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAuthService) Login(_ context.Context, email, password string) (string, error) {
	m.gotEmail = email
	m.gotPassword = password
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func TestAuthController_SignUp_Success(t *testing.T) {
	svc := &mockAuthService{user: &domain.User{ID: "user-1", Email: "alice@acme.com", Username: "alice"}}
	ctrl := NewAuthController(testLogger(), svc)

	body := `{"email":"alice@acme.com","password":"longenough","username":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.SignUp(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if svc.gotEmail != "alice@acme.com" || svc.gotUsername != "alice" {
		t.Fatalf("unexpected service args: %q %q", svc.gotEmail, svc.gotUsername)
	}
}

func TestAuthController_SignUp_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"longenough"}`},
		{"bad email", `{"email":"not-an-email","password":"longenough"}`},
		{"short password", `{"email":"alice@acme.com","password":"short"}`},
		{"unknown field", `{"email":"alice@acme.com","password":"longenough","extra":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewAuthController(testLogger(), &mockAuthService{})

			req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			ctrl.SignUp(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestAuthController_SignUp_DuplicateEmail(t *testing.T) {
	ctrl := NewAuthController(testLogger(), &mockAuthService{err: domain.ErrDuplicateEmail})

	body := `{"email":"alice@acme.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.SignUp(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != helpers.ErrCodeConflict {
		t.Fatalf("expected conflict error, got %+v", resp.Error)
	}
}

func TestAuthController_Login_Success(t *testing.T) {
	svc := &mockAuthService{token: "signed-jwt"}
	ctrl := NewAuthController(testLogger(), svc)

	body := `{"email":"alice@acme.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	data := resp.Data.(map[string]any)
	if data["token"] != "signed-jwt" || data["token_type"] != "Bearer" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestAuthController_Login_BadCredentials(t *testing.T) {
	ctrl := NewAuthController(testLogger(), &mockAuthService{err: domain.ErrForbidden})

	body := `{"email":"alice@acme.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
