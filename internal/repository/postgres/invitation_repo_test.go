package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"bizplatform/internal/domain"
)

var invitationCols = []string{
	"id", "email", "company_id", "department_id", "invited_by_id", "accepted_by_id",
	"role", "position", "status", "invitation_token", "expires_at", "accepted_at",
	"created_at", "updated_at",
}

func pendingInvitationRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(invitationCols).AddRow(
		"inv-1", "alice@x.com", "comp-7", nil, "owner-1", nil,
		"manager", "Team Lead", "pending", "tok-1", now.Add(24*time.Hour), nil,
		now, now,
	)
}

func TestInvitationRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success assigns id",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO company_invitations`).
					WithArgs("alice@x.com", "comp-7", nil, "owner-1", "manager", "Team Lead",
						domain.InvitationPending, "tok-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("inv-1"))
			},
		},
		{
			name: "pending unique index maps to duplicate conflict",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO company_invitations`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: pendingInvitationConstraint})
			},
			wantErr: domain.ErrDuplicatePendingInvitation,
		},
		{
			name: "other unique violation passes through",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO company_invitations`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "company_invitations_token_key"})
			},
			wantErr: errors.New("pq"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewInvitationRepository(db)
			inv := &domain.Invitation{
				Email: "alice@x.com", CompanyID: "comp-7", InvitedByID: "owner-1",
				Role: "manager", Position: "Team Lead", Status: domain.InvitationPending,
				Token: "tok-1", ExpiresAt: now.Add(24 * time.Hour), CreatedAt: now, UpdatedAt: now,
			}
			err = repo.Create(ctx, inv)
			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				require.Equal(t, "inv-1", inv.ID)
			case errors.Is(tt.wantErr, domain.ErrDuplicatePendingInvitation):
				require.ErrorIs(t, err, domain.ErrDuplicatePendingInvitation)
			default:
				require.Error(t, err)
				require.NotErrorIs(t, err, domain.ErrDuplicatePendingInvitation)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInvitationRepository_GetByToken(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM company_invitations WHERE invitation_token = \$1`).
			WithArgs("tok-1").
			WillReturnRows(pendingInvitationRow(now))

		repo := NewInvitationRepository(db)
		inv, err := repo.GetByToken(ctx, "tok-1")
		require.NoError(t, err)
		require.Equal(t, "inv-1", inv.ID)
		require.Equal(t, domain.InvitationPending, inv.Status)
		require.Nil(t, inv.AcceptedByID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM company_invitations WHERE invitation_token = \$1`).
			WithArgs("tok-x").
			WillReturnRows(sqlmock.NewRows(invitationCols))

		repo := NewInvitationRepository(db)
		_, err = repo.GetByToken(ctx, "tok-x")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInvitationRepository_Accept(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	newPending := func() (*domain.Invitation, *domain.Employee) {
		inv := &domain.Invitation{
			ID: "inv-1", Email: "alice@x.com", CompanyID: "comp-7",
			Status: domain.InvitationPending, Token: "tok-1",
		}
		emp := &domain.Employee{
			UserID: "alice-1", CompanyID: "comp-7", FirstName: "alice",
			Email: "alice@x.com", Position: "Team Lead", Role: "manager",
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		return inv, emp
	}

	t.Run("guarded update and employee insert commit together", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE company_invitations`).
			WithArgs("inv-1", domain.InvitationAccepted, "alice-1", sqlmock.AnyArg(), domain.InvitationPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO employees`).
			WithArgs("alice-1", "comp-7", nil, "alice", "", "alice@x.com", "Team Lead", "manager",
				true, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("emp-1"))
		mock.ExpectCommit()

		inv, emp := newPending()
		repo := NewInvitationRepository(db)
		require.NoError(t, repo.Accept(ctx, inv, emp, "alice-1", now))
		require.Equal(t, "emp-1", emp.ID)
		require.Equal(t, domain.InvitationAccepted, inv.Status)
		require.NotNil(t, inv.AcceptedByID)
		require.Equal(t, "alice-1", *inv.AcceptedByID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means a concurrent accept won", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE company_invitations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		inv, emp := newPending()
		repo := NewInvitationRepository(db)
		err = repo.Accept(ctx, inv, emp, "alice-1", now)
		require.ErrorIs(t, err, domain.ErrInvitationNotPending)
		require.Empty(t, emp.ID)
		require.Equal(t, domain.InvitationPending, inv.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("employee insert failure rolls back the invitation update", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE company_invitations`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO employees`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: employeeCompanyUserConstraint})
		mock.ExpectRollback()

		inv, emp := newPending()
		repo := NewInvitationRepository(db)
		err = repo.Accept(ctx, inv, emp, "alice-1", now)
		require.ErrorIs(t, err, domain.ErrAlreadyEmployee)
		require.Equal(t, domain.InvitationPending, inv.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvitationRepository_MarkDeclined(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "pending or declined row updates", rows: 1},
		{name: "terminal row returns state conflict", rows: 0, wantErr: domain.ErrInvitationNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE company_invitations`).
				WithArgs("inv-1", domain.InvitationDeclined, sqlmock.AnyArg(), domain.InvitationPending).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			repo := NewInvitationRepository(db)
			err = repo.MarkDeclined(ctx, "inv-1", now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInvitationRepository_MarkExpired(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE company_invitations`).
		WithArgs("inv-1", domain.InvitationExpired, sqlmock.AnyArg(), domain.InvitationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewInvitationRepository(db)
	require.NoError(t, repo.MarkExpired(ctx, "inv-1", time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_ListPendingByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	listCols := append(append([]string{}, invitationCols...), "company_name", "department_name")

	t.Run("returns joined names", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(listCols).
			AddRow("inv-1", "alice@x.com", "comp-7", "dept-1", "owner-1", nil,
				"manager", "", "pending", "tok-1", now.Add(time.Hour), nil, now, now,
				"Acme", "Engineering").
			AddRow("inv-2", "alice@x.com", "comp-8", nil, "owner-2", nil,
				"employee", "", "pending", "tok-2", now.Add(time.Hour), nil, now, now,
				"Globex", nil)
		mock.ExpectQuery(`SELECT i\.id, i\.email`).
			WithArgs("alice@x.com", domain.InvitationPending, sqlmock.AnyArg()).
			WillReturnRows(rows)

		repo := NewInvitationRepository(db)
		got, err := repo.ListPendingByEmail(ctx, "alice@x.com", now)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "Acme", got[0].CompanyName)
		require.NotNil(t, got[0].DepartmentName)
		require.Equal(t, "Engineering", *got[0].DepartmentName)
		require.Nil(t, got[1].DepartmentName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT i\.id, i\.email`).
			WithArgs("nobody@x.com", domain.InvitationPending, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(listCols))

		repo := NewInvitationRepository(db)
		got, err := repo.ListPendingByEmail(ctx, "nobody@x.com", now)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})
}

func TestInvitationRepository_ListByCompanyID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	params := domain.PaginationParams{Page: 2, PageSize: 10}

	listCols := append(append([]string{}, invitationCols...), "company_name", "department_name")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("comp-7", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`SELECT i\.id, i\.email`).
		WithArgs("comp-7", "alice", 10, 10).
		WillReturnRows(sqlmock.NewRows(listCols).
			AddRow("inv-1", "alice@x.com", "comp-7", nil, "owner-1", nil,
				"employee", "", "declined", "tok-1", now.Add(-time.Hour), nil, now, now,
				"Acme", nil))

	repo := NewInvitationRepository(db)
	got, total, err := repo.ListByCompanyID(ctx, "comp-7", "alice", params)
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Len(t, got, 1)
	require.Equal(t, domain.InvitationDeclined, got[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
