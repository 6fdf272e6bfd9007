package model

import "time"

// Follow is a row of the `follows` relation.  The pair of IDs is the
// primary key, so following twice is a no-op at the database level.
type Follow struct {
	FollowerID uint64    // follows.follower_id
	FolloweeID uint64    // follows.followee_id
	CreatedAt  time.Time // follows.created_at
}

// Like is a row of the `likes` relation, keyed by (user_id, post_id).
type Like struct {
	UserID    uint64    // likes.user_id
	PostID    uint64    // likes.post_id
	CreatedAt time.Time // likes.created_at
}

// Hashtag maps a lowercase tag to its ID.  Posts reference tags through
// the `post_hashtags` association table.
type Hashtag struct {
	ID  uint64 // hashtags.id
	Tag string // hashtags.tag
}

// Notification kinds.  The kind column is a short string rather than an
// enum so new kinds do not require a schema change.
const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// Notification is a row of the `notifications` table, written by the queue
// consumer and read by the notifications endpoints.
type Notification struct {
	ID          uint64     // notifications.id
	RecipientID uint64     // notifications.recipient_id
	SenderID    uint64     // notifications.sender_id
	SenderName  string     // joined from users for display
	Kind        string     // notifications.kind
	PostID      *uint64    // notifications.post_id (nullable; unset for follows)
	CreatedAt   time.Time  // notifications.created_at
	ReadAt      *time.Time // notifications.read_at (nullable)
}
