package repository

import (
	"context"
	"database/sql"
)

type LikeRepo struct{ DB *sql.DB }

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{DB: db} }

// Like records a like.  The composite primary key makes repeats a no-op;
// returns true when a new like was recorded.
func (r *LikeRepo) Like(ctx context.Context, userID, postID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO likes (user_id, post_id) VALUES (?,?)",
		userID, postID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Unlike removes a like; absent rows are a no-op.
func (r *LikeRepo) Unlike(ctx context.Context, userID, postID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id=? AND post_id=?", userID, postID)
	return err
}

// LikedBy returns the usernames that liked a post.
func (r *LikeRepo) LikedBy(ctx context.Context, postID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.username FROM likes l JOIN users u ON u.id = l.user_id
		WHERE l.post_id=? ORDER BY l.created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// HasLiked reports whether the user already liked the post.
func (r *LikeRepo) HasLiked(ctx context.Context, userID, postID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM likes WHERE user_id=? AND post_id=? LIMIT 1",
		userID, postID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
