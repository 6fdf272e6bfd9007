package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/queue"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

type followEnv struct {
	e       *echo.Echo
	handler *FollowHandler
	mock    sqlmock.Sqlmock
	events  []queue.NotificationEvent
}

func newFollowEnv(t *testing.T) *followEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &followEnv{e: echo.New(), mock: mock}
	notify := func(_ echo.Context, ev queue.NotificationEvent) {
		env.events = append(env.events, ev)
	}
	env.handler = NewFollowHandler(repository.NewFollowRepo(db), repository.NewUserRepo(db), notify)
	return env
}

func (env *followEnv) request(t *testing.T, userID uint64, username string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/"+username+"/follow", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	c.SetParamNames("username")
	c.SetParamValues(username)
	return c, rec
}

func (env *followEnv) expectUserLookup(username string, id uint64) {
	env.mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "password_hash", "joined_at",
			"is_admin", "two_factor_enabled", "two_factor_secret",
		}).AddRow(id, username, "hash", time.Now(), false, false, nil))
}

func TestFollowNotifiesTarget(t *testing.T) {
	env := newFollowEnv(t)

	env.expectUserLookup("bob", 9)
	env.mock.ExpectExec("INSERT IGNORE INTO follows").
		WithArgs(uint64(7), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := env.request(t, 7, "bob")
	require.NoError(t, env.handler.Follow(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, env.events, 1)
	assert.Equal(t, model.NotificationFollow, env.events[0].Kind)
	assert.Equal(t, uint64(9), env.events[0].RecipientID)
	assert.Equal(t, uint64(7), env.events[0].SenderID)
	assert.Nil(t, env.events[0].PostID)
}

func TestFollowRepeatedIsSilent(t *testing.T) {
	env := newFollowEnv(t)

	env.expectUserLookup("bob", 9)
	env.mock.ExpectExec("INSERT IGNORE INTO follows").
		WithArgs(uint64(7), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := env.request(t, 7, "bob")
	require.NoError(t, env.handler.Follow(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.events)
}

func TestFollowSelfIsConflict(t *testing.T) {
	env := newFollowEnv(t)

	env.expectUserLookup("alice", 7)

	c, rec := env.request(t, 7, "alice")
	require.NoError(t, env.handler.Follow(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, env.events)
}

func TestFollowUnknownUser(t *testing.T) {
	env := newFollowEnv(t)

	env.mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	c, rec := env.request(t, 7, "nobody")
	require.NoError(t, env.handler.Follow(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowRequiresAuth(t *testing.T) {
	env := newFollowEnv(t)

	c, rec := env.request(t, 0, "bob")
	require.NoError(t, env.handler.Follow(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
