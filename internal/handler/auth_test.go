package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blacktwitter/blacktwitter/internal/auth"
	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

// In-memory stores backing a real auth.Service for HTTP-level tests.

type memUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uint64]*model.User), nextID: 1}
}

func (s *memUserStore) Create(_ context.Context, username, passwordHash string) (uint64, error) {
	for _, u := range s.users {
		if u.Username == username {
			return 0, repository.ErrUsernameTaken
		}
	}
	id := s.nextID
	s.nextID++
	s.users[id] = &model.User{ID: id, Username: username, PasswordHash: passwordHash, JoinedAt: time.Now().UTC()}
	return id, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (s *memUserStore) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *memUserStore) SetTwoFactor(_ context.Context, id uint64, enabled bool, secret string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TwoFactorEnabled = enabled
	u.TwoFactorSecret = secret
	return nil
}

func (s *memUserStore) ClearTwoFactor(_ context.Context, id uint64) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TwoFactorEnabled = false
	u.TwoFactorSecret = ""
	return nil
}

type memTokenStore struct{ byHash map[string]uint64 }

func newMemTokenStore() *memTokenStore { return &memTokenStore{byHash: make(map[string]uint64)} }

func (s *memTokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	s.byHash[hash] = userID
	return nil
}

func (s *memTokenStore) Consume(_ context.Context, hash string) (uint64, error) {
	id, ok := s.byHash[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	delete(s.byHash, hash)
	return id, nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	for h, id := range s.byHash {
		if id == userID {
			delete(s.byHash, h)
		}
	}
	return nil
}

type authEnv struct {
	e       *echo.Echo
	handler *AuthHandler
	users   *memUserStore
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	users := newMemUserStore()
	svc := auth.NewService(users, newMemTokenStore(), auth.NewMemoryPendingStore(), nil, auth.Options{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		ResetTTLMin:    30,
		PendingTTL:     5 * time.Minute,
		BcryptCost:     bcrypt.MinCost,
		StrengthPolicy: true,
	})
	return &authEnv{e: echo.New(), handler: NewAuthHandler(svc), users: users}
}

func (env *authEnv) do(t *testing.T, h echo.HandlerFunc, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	require.NoError(t, h(c))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegisterReturnsSession(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, false, user["is_admin"])
	assert.NotEmpty(t, body["access"].(map[string]any)["token"])
	assert.NotEmpty(t, body["refresh"].(map[string]any)["token"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterWeakPassword(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.do(t, env.handler.Register, `{"username":"alice","password":"short"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "8 characters")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newAuthEnv(t)
	env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)

	wrongPass := env.do(t, env.handler.Login, `{"username":"alice","password":"Wrong-Pass1!"}`, nil)
	noUser := env.do(t, env.handler.Login, `{"username":"nobody","password":"Abcdef1!"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.JSONEq(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t)
	env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)

	rec := env.do(t, env.handler.Login, `{"username":"alice","password":"Abcdef1!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access"].(map[string]any)["token"])
}

func TestLoginWithTwoFactorIssuesChallenge(t *testing.T) {
	env := newAuthEnv(t)
	env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)

	// Enroll and confirm via the handlers, as a client would.
	asUser := func(c echo.Context) { c.Set("user_id", uint64(1)) }

	rec := env.do(t, env.handler.EnableTwoFactor, `{}`, asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	secret := decodeBody(t, rec)["secret"].(string)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	rec = env.do(t, env.handler.ConfirmTwoFactor, `{"code":"`+code+`"}`, asUser)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Correct password now yields a challenge instead of tokens.
	rec = env.do(t, env.handler.Login, `{"username":"alice","password":"Abcdef1!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["two_factor_required"])
	challengeID := body["challenge_id"].(string)
	require.NotEmpty(t, challengeID)

	// A wrong code is rejected, the right one completes the session.
	rec = env.do(t, env.handler.VerifyTwoFactor, `{"challenge_id":"`+challengeID+`","code":"000000"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, err = totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	rec = env.do(t, env.handler.VerifyTwoFactor, `{"challenge_id":"`+challengeID+`","code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["access"].(map[string]any)["token"])
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	refresh := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)

	rec = env.do(t, env.handler.Refresh, `{"refresh_token":"`+refresh+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)
	assert.NotEqual(t, refresh, next)

	// The old token was revoked by the rotation.
	rec = env.do(t, env.handler.Refresh, `{"refresh_token":"`+refresh+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newAuthEnv(t)

	rec := env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	refresh := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)

	rec = env.do(t, env.handler.Logout, `{"refresh_token":"`+refresh+`"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, env.handler.Refresh, `{"refresh_token":"`+refresh+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetRequestNeverRevealsAccounts(t *testing.T) {
	env := newAuthEnv(t)
	env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)

	known := env.do(t, env.handler.RequestPasswordReset, `{"username":"alice"}`, nil)
	unknown := env.do(t, env.handler.RequestPasswordReset, `{"username":"nobody"}`, nil)

	assert.Equal(t, http.StatusNoContent, known.Code)
	assert.Equal(t, http.StatusNoContent, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	env.do(t, env.handler.Register, `{"username":"alice","password":"Abcdef1!"}`, nil)
	asUser := func(c echo.Context) { c.Set("user_id", uint64(1)) }

	rec := env.do(t, env.handler.ChangePassword,
		`{"current_password":"Wrong-Pass1!","new_password":"Newpass1!"}`, asUser)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, env.handler.ChangePassword,
		`{"current_password":"Abcdef1!","new_password":"Newpass1!","confirm_password":"other"}`, asUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, env.handler.ChangePassword,
		`{"current_password":"Abcdef1!","new_password":"Newpass1!"}`, asUser)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, env.handler.Login, `{"username":"alice","password":"Newpass1!"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
