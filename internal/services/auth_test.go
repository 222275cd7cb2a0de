package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bizplatform/internal/domain"
)

type stubHasher struct{ failCompare bool }

func (s *stubHasher) GenerateSalt() (string, error) { return "salt", nil }
func (s *stubHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}
func (s *stubHasher) Compare(hash, salt, password string) error {
	if s.failCompare || hash != "hash:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

type stubIssuer struct{}

func (s *stubIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	return "token-for-" + userID, nil
}

type authUserRepo struct {
	byEmail map[string]*domain.User
}

func (r *authUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = "u-" + u.Email
	r.byEmail[u.Email] = u
	return nil
}

func (r *authUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *authUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func newAuthFixture() (*authUserRepo, domain.AuthService) {
	repo := &authUserRepo{byEmail: map[string]*domain.User{}}
	svc := NewAuthService(repo, &stubHasher{}, &stubIssuer{}, time.Hour, nil, nil)
	return repo, svc
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with normalized email", func(t *testing.T) {
		repo, svc := newAuthFixture()
		u, err := svc.SignUp(ctx, "  Alice@X.com ", "password123", "alice")
		require.NoError(t, err)
		require.Equal(t, "alice@x.com", u.Email)
		require.Equal(t, "alice", u.Username)
		require.NotEmpty(t, u.ID)
		require.Contains(t, repo.byEmail, "alice@x.com")
	})

	t.Run("username defaults to email local part", func(t *testing.T) {
		_, svc := newAuthFixture()
		u, err := svc.SignUp(ctx, "bob@x.com", "password123", "")
		require.NoError(t, err)
		require.Equal(t, "bob", u.Username)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		_, svc := newAuthFixture()
		_, err := svc.SignUp(ctx, "not-an-email", "password123", "x")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, svc := newAuthFixture()
		_, err := svc.SignUp(ctx, "a@x.com", "short", "x")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, svc := newAuthFixture()
		_, err := svc.SignUp(ctx, "a@x.com", "password123", "x")
		require.NoError(t, err)
		_, err = svc.SignUp(ctx, "a@x.com", "password123", "y")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials return token", func(t *testing.T) {
		_, svc := newAuthFixture()
		u, err := svc.SignUp(ctx, "a@x.com", "password123", "x")
		require.NoError(t, err)
		token, err := svc.Login(ctx, "A@x.com", "password123")
		require.NoError(t, err)
		require.Equal(t, "token-for-"+u.ID, token)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, svc := newAuthFixture()
		_, err := svc.SignUp(ctx, "a@x.com", "password123", "x")
		require.NoError(t, err)
		_, err = svc.Login(ctx, "a@x.com", "wrong-password")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		_, svc := newAuthFixture()
		_, err := svc.Login(ctx, "nobody@x.com", "password123")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}
