package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepoWithMock(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

func TestStoreRefreshInsertsRow(t *testing.T) {
	repo, mock := newTokenRepoWithMock(t)

	exp := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(7), "hash", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.StoreRefresh(context.Background(), 7, "hash", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeActiveToken(t *testing.T) {
	repo, mock := newTokenRepoWithMock(t)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP").
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM refresh_tokens").
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	id, err := repo.Consume(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The UPDATE guard rejects expired, revoked and unknown tokens alike; all
// three surface as zero rows affected.
func TestConsumeInactiveToken(t *testing.T) {
	repo, mock := newTokenRepoWithMock(t)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP").
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Consume(context.Background(), "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeTwiceFailsSecondTime(t *testing.T) {
	repo, mock := newTokenRepoWithMock(t)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP").
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM refresh_tokens").
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP").
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	id, err := repo.Consume(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	_, err = repo.Consume(context.Background(), "hash")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock := newTokenRepoWithMock(t)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeAllForUser(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
