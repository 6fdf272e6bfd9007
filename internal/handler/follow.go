package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/queue"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

// FollowHandler serves the follow graph endpoints.
type FollowHandler struct {
	Follows *repository.FollowRepo
	Users   *repository.UserRepo
	Notify  func(c echo.Context, ev queue.NotificationEvent)
}

func NewFollowHandler(follows *repository.FollowRepo, users *repository.UserRepo, notify func(c echo.Context, ev queue.NotificationEvent)) *FollowHandler {
	if follows == nil || users == nil {
		panic("nil repository passed to NewFollowHandler")
	}
	if notify == nil {
		notify = func(echo.Context, queue.NotificationEvent) {}
	}
	return &FollowHandler{Follows: follows, Users: users, Notify: notify}
}

type userSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

func toUserSummaries(us []model.User) []userSummary {
	out := make([]userSummary, 0, len(us))
	for _, u := range us {
		out = append(out, userSummary{ID: u.ID, Username: u.Username})
	}
	return out
}

func (h *FollowHandler) target(c echo.Context) (model.User, bool, error) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return model.User{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return model.User{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return u, true, nil
}

// Follow handles POST /v1/users/:username/follow.
func (h *FollowHandler) Follow(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, ok, resp := h.target(c)
	if !ok {
		return resp
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Follows.Follow(ctx, userID, u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot follow yourself"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "follow failed"})
	}
	if created {
		h.Notify(c, queue.NotificationEvent{
			RecipientID: u.ID,
			SenderID:    userID,
			Kind:        model.NotificationFollow,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// Unfollow handles DELETE /v1/users/:username/follow.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, ok, resp := h.target(c)
	if !ok {
		return resp
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Follows.Unfollow(ctx, userID, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unfollow failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Followers handles GET /v1/users/:username/followers.
func (h *FollowHandler) Followers(c echo.Context) error {
	u, ok, resp := h.target(c)
	if !ok {
		return resp
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Follows.Followers(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toUserSummaries(users)})
}

// Following handles GET /v1/users/:username/following.
func (h *FollowHandler) Following(c echo.Context) error {
	u, ok, resp := h.target(c)
	if !ok {
		return resp
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Follows.Following(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toUserSummaries(users)})
}
