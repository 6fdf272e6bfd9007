package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

// postSelect joins author name and aggregates like/comment counts.
const postSelect = `
SELECT p.id, p.user_id, u.username, p.content, p.created_at,
       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
FROM posts p
JOIN users u ON u.id = p.user_id`

// CreateTx inserts a post inside the caller's transaction so hashtag links
// land atomically with the post itself.
func (r *PostRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, content string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO posts (user_id, content) VALUES (?,?)", userID, content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single post with counts.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (model.Post, error) {
	var p model.Post
	err := r.DB.QueryRowContext(ctx, postSelect+" WHERE p.id=? LIMIT 1", id).
		Scan(&p.ID, &p.UserID, &p.Username, &p.Content, &p.CreatedAt, &p.Likes, &p.Comments)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	return p, err
}

// ListRecent returns the newest posts, paginated.
func (r *PostRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ListByUser returns a user's own posts, newest first.
func (r *PostRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+" WHERE p.user_id=? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ListFeed returns the personal feed: the user's own posts plus posts from
// everyone they follow, newest first.
func (r *PostRepo) ListFeed(ctx context.Context, userID uint64, limit, offset int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+` WHERE p.user_id=? OR p.user_id IN
			(SELECT followee_id FROM follows WHERE follower_id=?)
		ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		userID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// SearchContent finds posts whose content contains the query substring.
func (r *PostRepo) SearchContent(ctx context.Context, query string, limit int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		postSelect+" WHERE p.content LIKE CONCAT('%', ?, '%') ORDER BY p.created_at DESC LIMIT ?",
		query, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// Delete removes a post if it belongs to userID.  Dependent comment, like
// and hashtag rows go first so the foreign keys hold.
func (r *PostRepo) Delete(ctx context.Context, postID, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM posts WHERE id=? LIMIT 1", postID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, q := range []string{
		"DELETE FROM comments WHERE post_id=?",
		"DELETE FROM likes WHERE post_id=?",
		"DELETE FROM post_hashtags WHERE post_id=?",
		"DELETE FROM posts WHERE id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, postID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.Content,
			&p.CreatedAt, &p.Likes, &p.Comments); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
