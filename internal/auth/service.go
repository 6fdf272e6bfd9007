// Package auth implements the account lifecycle: registration, login with
// an optional TOTP second factor, token issuance, password reset and
// password change.  The service owns no storage of its own; it is wired to
// its stores at construction, and handlers translate its typed errors into
// HTTP responses.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/repository"
	"github.com/blacktwitter/blacktwitter/internal/utils"
)

// UserStore is the credential store the lifecycle runs against.
// *repository.UserRepo satisfies it; tests supply stubs.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string) error
	SetTwoFactor(ctx context.Context, id uint64, enabled bool, secret string) error
	ClearTwoFactor(ctx context.Context, id uint64) error
}

// TokenStore persists refresh tokens; *repository.TokenRepo satisfies it.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash string) (uint64, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Mailer delivers reset tokens out of band.  Delivery is an external
// collaborator; a log-only implementation ships with the server.
type Mailer interface {
	SendPasswordReset(ctx context.Context, username, token string) error
}

// Options carries the lifecycle's tunables out of config.
type Options struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	ResetTTLMin    int
	PendingTTL     time.Duration
	BcryptCost     int
	StrengthPolicy bool
}

// Service orchestrates the credential and session lifecycle.
type Service struct {
	users   UserStore
	tokens  TokenStore
	pending PendingStore
	mailer  Mailer
	opts    Options
}

func NewService(users UserStore, tokens TokenStore, pending PendingStore, mailer Mailer, opts Options) *Service {
	if users == nil || tokens == nil || pending == nil {
		panic("nil store passed to auth.NewService")
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{users: users, tokens: tokens, pending: pending, mailer: mailer, opts: opts}
}

// dummyHash is a valid bcrypt digest compared against when a login names a
// missing user, so both failure paths spend the same time hashing.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Register creates an account with is_admin always false.  Usernames are
// exact-match and case-sensitive; the store's uniqueness constraint is the
// only duplicate check.
func (s *Service) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrInvalidCredentials
	}
	if s.opts.StrengthPolicy {
		if err := utils.ValidatePasswordStrength(password); err != nil {
			return model.User{}, err
		}
	}
	hash, err := utils.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.users.Create(ctx, username, hash)
	if err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

// Result is the outcome of primary-factor authentication.  Exactly one of
// User or ChallengeID is set: a challenge means the password was right but
// a TOTP code is still required and no session exists yet.
type Result struct {
	User        *model.User
	ChallengeID string
}

// TwoFactorPending reports whether the login is waiting on a code.
func (r Result) TwoFactorPending() bool { return r.ChallengeID != "" }

// Authenticate verifies the primary factor.  A missing user and a wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Result, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		utils.VerifyPassword(dummyHash, password) // equalize timing
		return Result{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Result{}, ErrInvalidCredentials
	}
	if u.TwoFactorEnabled {
		challenge := uuid.NewString()
		if err := s.pending.Put(ctx, challenge, u.ID, s.opts.PendingTTL); err != nil {
			return Result{}, err
		}
		return Result{ChallengeID: challenge}, nil
	}
	return Result{User: &u}, nil
}

// VerifyTwoFactor checks a code against a pending challenge.  Success
// consumes the challenge; failure leaves it in place so the caller may
// retry until the TTL runs out.  Unknown challenges and wrong codes share
// one error.
func (s *Service) VerifyTwoFactor(ctx context.Context, challengeID, code string) (model.User, error) {
	userID, err := s.pending.Get(ctx, challengeID)
	if err != nil {
		return model.User{}, ErrInvalidTwoFactorCode
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, ErrInvalidTwoFactorCode
	}
	if !u.TwoFactorEnabled || !utils.VerifyTOTP(u.TwoFactorSecret, code) {
		return model.User{}, ErrInvalidTwoFactorCode
	}
	_ = s.pending.Delete(ctx, challengeID)
	return u, nil
}

// TokenPair is a full session: short-lived access JWT plus a refresh token
// whose hash is stored server-side.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// IssueTokens establishes a session for an authenticated user.
func (s *Service) IssueTokens(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.opts.JWTSecret, u.ID, u.IsAdmin, s.opts.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.opts.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token: the old token is consumed in a single
// atomic step and a new pair is issued, so a replayed token fails cleanly.
func (s *Service) Refresh(ctx context.Context, raw string) (model.User, TokenPair, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.tokens.Consume(ctx, hash)
	if err != nil {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(ctx, u)
	return u, pair, err
}

// Logout revokes one session by its raw refresh token.
func (s *Service) Logout(ctx context.Context, raw string) error {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	if _, err := s.tokens.Consume(ctx, hash); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LogoutAll revokes every active session for a user.
func (s *Service) LogoutAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// RequestPasswordReset issues a signed reset token when the account exists
// and reports success either way.  The token embeds the current password
// version, which makes it single-use in effect.
func (s *Service) RequestPasswordReset(ctx context.Context, username string) error {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil // unknown accounts get the same answer
	}
	token, err := utils.NewResetToken(s.opts.JWTSecret, u.ID, u.PasswordHash, s.opts.ResetTTLMin)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, u.Username, token)
}

// CompletePasswordReset verifies a reset token and stores the new password.
// Expired, tampered or already-used tokens all fail with
// utils.ErrInvalidResetToken and leave state untouched.  Success revokes
// every refresh token the account had.
func (s *Service) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	userID, pwv, err := utils.ParseResetToken(s.opts.JWTSecret, token)
	if err != nil {
		return utils.ErrInvalidResetToken
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return utils.ErrInvalidResetToken
	}
	if pwv != utils.PasswordVersion(u.PasswordHash) {
		return utils.ErrInvalidResetToken // password changed since issuance
	}
	if s.opts.StrengthPolicy {
		if err := utils.ValidatePasswordStrength(newPassword); err != nil {
			return err
		}
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, u.ID)
}

// ChangePassword verifies the current password before accepting a new one,
// then revokes outstanding sessions.
func (s *Service) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if s.opts.StrengthPolicy {
		if err := utils.ValidatePasswordStrength(newPassword); err != nil {
			return err
		}
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// EnableTwoFactor starts enrollment: a secret is generated and stored with
// the enabled flag still false.  Login stays single-factor until
// ConfirmTwoFactor proves the authenticator works.
func (s *Service) EnableTwoFactor(ctx context.Context, userID uint64) (secret, uri string, err error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	secret, uri, err = utils.NewTOTPSecret(u.Username)
	if err != nil {
		return "", "", err
	}
	if err := s.users.SetTwoFactor(ctx, userID, false, secret); err != nil {
		return "", "", err
	}
	return secret, uri, nil
}

// ConfirmTwoFactor flips the enabled flag once the user proves possession
// of the secret with a valid code.
func (s *Service) ConfirmTwoFactor(ctx context.Context, userID uint64, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}
	if !utils.VerifyTOTP(u.TwoFactorSecret, code) {
		return ErrInvalidTwoFactorCode
	}
	return s.users.SetTwoFactor(ctx, userID, true, u.TwoFactorSecret)
}

// DisableTwoFactor requires the account password and clears flag and
// secret together.
func (s *Service) DisableTwoFactor(ctx context.Context, userID uint64, password string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !u.TwoFactorEnabled && u.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return s.users.ClearTwoFactor(ctx, userID)
}

// IsUsernameTaken lets handlers map the store sentinel without importing
// the repository package everywhere.
func IsUsernameTaken(err error) bool { return errors.Is(err, repository.ErrUsernameTaken) }
