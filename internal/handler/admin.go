package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/repository"
)

// AdminHandler serves the admin-only endpoints.
type AdminHandler struct {
	Users *repository.UserRepo
}

func NewAdminHandler(users *repository.UserRepo) *AdminHandler {
	if users == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users}
}

type adminUserResp struct {
	ID               uint64    `json:"id"`
	Username         string    `json:"username"`
	JoinedAt         time.Time `json:"joined_at"`
	IsAdmin          bool      `json:"is_admin"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
}

// ListUsers handles GET /v1/admin/users: every registered account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{
			ID: u.ID, Username: u.Username, JoinedAt: u.JoinedAt,
			IsAdmin: u.IsAdmin, TwoFactorEnabled: u.TwoFactorEnabled,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
