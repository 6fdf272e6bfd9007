package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

var userRows = []string{
	"id", "username", "password_hash", "joined_at",
	"is_admin", "two_factor_enabled", "two_factor_secret",
}

func TestUserRepoCreate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (username, password_hash) VALUES (?,?)")).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  alice  ", "hash")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "hash").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'uq_users_username'"))

	_, err := repo.Create(context.Background(), "alice", "hash")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepoGetByUsername(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	joined := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow(7, "alice", "hash", joined, false, true, "SECRET"))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.TwoFactorEnabled)
	assert.Equal(t, "SECRET", u.TwoFactorSecret)
}

func TestUserRepoGetByUsernameNotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoNullTwoFactorSecret(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id=\\?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow(7, "alice", "hash", time.Now(), false, false, nil))

	u, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, u.TwoFactorSecret)
}

func TestUserRepoUpdatePasswordHashMissing(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs("newhash", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePasswordHash(context.Background(), 99, "newhash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoSetTwoFactorEnabledNeedsSecret(t *testing.T) {
	repo, _ := newUserRepoWithMock(t)
	err := repo.SetTwoFactor(context.Background(), 7, true, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserRepoSetTwoFactorPendingSecret(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET two_factor_enabled=?, two_factor_secret=? WHERE id=?")).
		WithArgs(false, sql.NullString{String: "SECRET", Valid: true}, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetTwoFactor(context.Background(), 7, false, "SECRET"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
