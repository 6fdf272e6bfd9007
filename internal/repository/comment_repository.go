package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts a comment and returns its ID.  The post must exist; the
// foreign key turns a dangling post_id into an error rather than an
// orphan row.
func (r *CommentRepo) Create(ctx context.Context, postID, userID uint64, content string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (post_id, user_id, content) VALUES (?,?,?)",
		postID, userID, content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByPost returns a post's comments oldest first, the reading order.
func (r *CommentRepo) ListByPost(ctx context.Context, postID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id=? ORDER BY c.created_at ASC, c.id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.Username,
			&cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// Delete removes a comment owned by userID.
func (r *CommentRepo) Delete(ctx context.Context, commentID, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM comments WHERE id=? LIMIT 1", commentID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM comments WHERE id=?", commentID)
	return err
}
