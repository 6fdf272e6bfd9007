package repository

import (
	"context"
	"database/sql"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create persists a notification row.  Called from the queue consumer, not
// from request handlers.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	var postID sql.NullInt64
	if n.PostID != nil {
		postID = sql.NullInt64{Int64: int64(*n.PostID), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (recipient_id, sender_id, kind, post_id) VALUES (?,?,?,?)",
		n.RecipientID, n.SenderID, n.Kind, postID)
	return err
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT n.id, n.recipient_id, n.sender_id, u.username, n.kind, n.post_id, n.created_at, n.read_at
		FROM notifications n JOIN users u ON u.id = n.sender_id
		WHERE n.recipient_id=? ORDER BY n.created_at DESC, n.id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var (
			n      model.Notification
			postID sql.NullInt64
			readAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.SenderName,
			&n.Kind, &postID, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if postID.Valid {
			v := uint64(postID.Int64)
			n.PostID = &v
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns the number of unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id=? AND read_at IS NULL",
		userID).Scan(&n)
	return n, err
}

// MarkAllRead stamps every unread notification for the user.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET read_at=NOW() WHERE recipient_id=? AND read_at IS NULL",
		userID)
	return err
}
