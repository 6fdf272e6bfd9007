package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/auth"
	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/utils"
)

// AuthHandler exposes the account lifecycle over HTTP.  All credential
// decisions live in the auth service; this layer binds requests, maps
// typed errors to statuses and keeps failure messages non-enumerating.
type AuthHandler struct {
	Auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	if svc == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: svc}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type twoFactorVerifyReq struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type resetRequestReq struct {
	Username string `json:"username"`
}
type resetCompleteReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64    `json:"id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
	IsAdmin  bool      `json:"is_admin"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, JoinedAt: u.JoinedAt, IsAdmin: u.IsAdmin}
}

func (h *AuthHandler) sessionResponse(c echo.Context, status int, u model.User) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	pair, err := h.Auth.IssueTokens(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		Refresh: tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp}, // raw back to client
	})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register: create account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case auth.IsUsernameTaken(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case errors.Is(err, utils.ErrWeakPassword):
			// Policy failures may be specific; they leak nothing about accounts.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
		}
	}
	return h.sessionResponse(c, http.StatusCreated, u)
}

// Login: verify the primary factor.  Full tokens come back only when no
// second factor is required; otherwise the client gets a challenge id.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if res.TwoFactorPending() {
		return c.JSON(http.StatusOK, echo.Map{
			"two_factor_required": true,
			"challenge_id":        res.ChallengeID,
		})
	}
	return h.sessionResponse(c, http.StatusOK, *res.User)
}

// VerifyTwoFactor: exchange a pending challenge plus a TOTP code for a
// full session.
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req twoFactorVerifyReq
	if err := c.Bind(&req); err != nil || req.ChallengeID == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "challenge_id and code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.VerifyTwoFactor(ctx, req.ChallengeID, req.Code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid two-factor code"})
	}
	return h.sessionResponse(c, http.StatusOK, u)
}

// Refresh: validate by hash, revoke old, issue new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		Refresh: tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp},
	})
}

// Logout revokes a single session by its refresh token.  When called with
// a valid bearer token and no body, every session of the user is revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		if err := h.Auth.Logout(ctx, refreshToken); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	if uid, err := getUserID(c); err == nil && uid != 0 {
		if err := h.Auth.LogoutAll(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
}

// RequestPasswordReset always answers 204 so responses cannot reveal
// whether an account exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, req.Username); err != nil {
		// Token issuance trouble is logged server-side; the response stays
		// identical to the unknown-account case.
		c.Logger().Errorf("reset request failed: %v", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CompletePasswordReset redeems a reset token for a new password.
func (h *AuthHandler) CompletePasswordReset(c echo.Context) error {
	var req resetCompleteReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new_password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.CompletePasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword is the authenticated variant: current password required.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password and new_password required"})
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, utils.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// EnableTwoFactor begins TOTP enrollment for the current user.
func (h *AuthHandler) EnableTwoFactor(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	secret, uri, err := h.Auth.EnableTwoFactor(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enable two-factor failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"secret": secret, "otpauth_url": uri})
}

// ConfirmTwoFactor completes enrollment with a first valid code.
func (h *AuthHandler) ConfirmTwoFactor(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req twoFactorVerifyReq
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ConfirmTwoFactor(ctx, uid, req.Code); err != nil {
		if errors.Is(err, auth.ErrTwoFactorNotEnabled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "two-factor not enrolled"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid two-factor code"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DisableTwoFactor turns 2FA off after re-verifying the password.
func (h *AuthHandler) DisableTwoFactor(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req credentialsReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.DisableTwoFactor(ctx, uid, req.Password); err != nil {
		if errors.Is(err, auth.ErrTwoFactorNotEnabled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "two-factor not enabled"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return c.NoContent(http.StatusNoContent)
}
