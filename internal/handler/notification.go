package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

// NotificationHandler serves the per-user notification inbox.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(repo *repository.NotificationRepo) *NotificationHandler {
	if repo == nil {
		panic("nil repository passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notifications: repo}
}

type notificationResp struct {
	ID         uint64     `json:"id"`
	SenderID   uint64     `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Kind       string     `json:"kind"`
	PostID     *uint64    `json:"post_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

func toNotificationResps(ns []model.Notification) []notificationResp {
	out := make([]notificationResp, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationResp{
			ID: n.ID, SenderID: n.SenderID, SenderName: n.SenderName,
			Kind: n.Kind, PostID: n.PostID, CreatedAt: n.CreatedAt, ReadAt: n.ReadAt,
		})
	}
	return out
}

// List handles GET /v1/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, _ := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	ns, err := h.Notifications.ListForUser(ctx, userID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": toNotificationResps(ns)})
}

// UnreadCount handles GET /v1/notifications/unread.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkAllRead handles POST /v1/notifications/read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
