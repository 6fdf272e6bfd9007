package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/repository"
)

// ProfileHandler serves public user profiles and the caller's own account.
type ProfileHandler struct {
	Users   *repository.UserRepo
	Posts   *repository.PostRepo
	Follows *repository.FollowRepo
}

func NewProfileHandler(users *repository.UserRepo, posts *repository.PostRepo, follows *repository.FollowRepo) *ProfileHandler {
	if users == nil || posts == nil || follows == nil {
		panic("nil repository passed to NewProfileHandler")
	}
	return &ProfileHandler{Users: users, Posts: posts, Follows: follows}
}

type profileResp struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	JoinedAt  time.Time  `json:"joined_at"`
	Followers int        `json:"followers"`
	Following int        `json:"following"`
	Posts     []postResp `json:"posts"`
}

// Get handles GET /v1/users/:username: public profile with counts and
// recent posts.
func (h *ProfileHandler) Get(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	followers, following, err := h.Follows.Counts(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	posts, err := h.Posts.ListByUser(ctx, u.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, profileResp{
		ID: u.ID, Username: u.Username, JoinedAt: u.JoinedAt,
		Followers: followers, Following: following,
		Posts: toPostResps(posts),
	})
}

// Me handles GET /v1/me for the authenticated caller.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":                 u.ID,
		"username":           u.Username,
		"joined_at":          u.JoinedAt,
		"is_admin":           u.IsAdmin,
		"two_factor_enabled": u.TwoFactorEnabled,
	})
}
