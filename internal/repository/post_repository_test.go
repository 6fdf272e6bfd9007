package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostRepoWithMock(t *testing.T) (*PostRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostRepo(db), mock
}

var postRows = []string{"id", "user_id", "username", "content", "created_at", "likes", "comments"}

func TestPostGetByID(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT p.id, p.user_id, u.username").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(postRows).
			AddRow(3, 7, "alice", "hello #go", time.Now(), 2, 1))

	p, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 2, p.Likes)
	assert.Equal(t, 1, p.Comments)
}

func TestPostGetByIDNotFound(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT p.id, p.user_id, u.username").
		WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostDeleteEnforcesOwnership(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT user_id FROM posts WHERE id=\\?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	err := repo.Delete(context.Background(), 3, 99)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPostDeleteCascades(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT user_id FROM posts WHERE id=\\?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM comments WHERE post_id=\\?").
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM likes WHERE post_id=\\?").
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM post_hashtags WHERE post_id=\\?").
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM posts WHERE id=\\?").
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 3, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDeleteMissing(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT user_id FROM posts WHERE id=\\?").
		WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Delete(context.Background(), 3, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFeedIncludesOwnAndFollowed(t *testing.T) {
	repo, mock := newPostRepoWithMock(t)

	mock.ExpectQuery("SELECT p.id, p.user_id, u.username").
		WithArgs(uint64(7), uint64(7), 20, 0).
		WillReturnRows(sqlmock.NewRows(postRows).
			AddRow(2, 8, "bob", "followed post", time.Now(), 0, 0).
			AddRow(1, 7, "alice", "own post", time.Now(), 0, 0))

	posts, err := repo.ListFeed(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "bob", posts[0].Username)
	assert.Equal(t, "alice", posts[1].Username)
}
