package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type FollowRepo struct{ DB *sql.DB }

func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{DB: db} }

// Follow creates the relation.  INSERT IGNORE makes a repeat follow a
// no-op; self-follows are rejected before touching the database.
// Returns true when a new relation was created.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == followeeID {
		return false, ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO follows (follower_id, followee_id) VALUES (?,?)",
		followerID, followeeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Unfollow removes the relation; removing a non-existent one is a no-op.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followeeID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id=? AND followee_id=?",
		followerID, followeeID)
	return err
}

// IsFollowing reports whether the relation exists.
func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM follows WHERE follower_id=? AND followee_id=? LIMIT 1",
		followerID, followeeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Followers lists users following userID.
func (r *FollowRepo) Followers(ctx context.Context, userID uint64) ([]model.User, error) {
	return r.listRelated(ctx,
		"JOIN follows f ON f.follower_id = u.id WHERE f.followee_id=?", userID)
}

// Following lists users that userID follows.
func (r *FollowRepo) Following(ctx context.Context, userID uint64) ([]model.User, error) {
	return r.listRelated(ctx,
		"JOIN follows f ON f.followee_id = u.id WHERE f.follower_id=?", userID)
}

// Counts returns (followers, following) for a user in one round trip.
func (r *FollowRepo) Counts(ctx context.Context, userID uint64) (int, int, error) {
	var followers, following int
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id=?),
			(SELECT COUNT(*) FROM follows WHERE follower_id=?)`,
		userID, userID).Scan(&followers, &following)
	return followers, following, err
}

func (r *FollowRepo) listRelated(ctx context.Context, join string, userID uint64) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, strings.Join([]string{
		"SELECT u.id, u.username, u.joined_at FROM users u", join,
		"ORDER BY f.created_at DESC"}, " "), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
