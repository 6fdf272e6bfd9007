package model

import "time"

// Post is a short text update in the `posts` table.
type Post struct {
	ID        uint64    // posts.id
	UserID    uint64    // posts.user_id
	Username  string    // joined from users for display; not a column of posts
	Content   string    // posts.content
	CreatedAt time.Time // posts.created_at
	Likes     int       // aggregated like count when loaded with counts
	Comments  int       // aggregated comment count when loaded with counts
}

// Comment is a reply to a post in the `comments` table.
type Comment struct {
	ID        uint64    // comments.id
	PostID    uint64    // comments.post_id
	UserID    uint64    // comments.user_id
	Username  string    // joined from users for display
	Content   string    // comments.content
	CreatedAt time.Time // comments.created_at
}
