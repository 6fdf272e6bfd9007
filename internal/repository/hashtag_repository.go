package repository

import (
	"context"
	"database/sql"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type HashtagRepo struct{ DB *sql.DB }

func NewHashtagRepo(db *sql.DB) *HashtagRepo { return &HashtagRepo{DB: db} }

// LinkTx associates the given (already lowercased) tags with a post inside
// the caller's transaction.  Tags are created on first use; duplicate
// links within a post are absorbed by the association table's primary key.
func (r *HashtagRepo) LinkTx(ctx context.Context, tx *sql.Tx, postID uint64, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO hashtags (tag) VALUES (?)", tag); err != nil {
			return err
		}
		var tagID uint64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM hashtags WHERE tag=? LIMIT 1", tag).Scan(&tagID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO post_hashtags (post_id, hashtag_id) VALUES (?,?)",
			postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// PostsByTag returns the posts carrying a tag, newest first.
func (r *HashtagRepo) PostsByTag(ctx context.Context, tag string, limit int) ([]model.Post, error) {
	rows, err := r.DB.QueryContext(ctx, postSelect+`
		JOIN post_hashtags ph ON ph.post_id = p.id
		JOIN hashtags h ON h.id = ph.hashtag_id
		WHERE h.tag=? ORDER BY p.created_at DESC, p.id DESC LIMIT ?`,
		tag, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// Search finds tags containing the query substring.
func (r *HashtagRepo) Search(ctx context.Context, query string, limit int) ([]model.Hashtag, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, tag FROM hashtags WHERE tag LIKE CONCAT('%', ?, '%') ORDER BY tag LIMIT ?",
		query, limit)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// TrendingTag pairs a tag with its recent usage count.
type TrendingTag struct {
	Tag   string
	Count int
}

// Trending returns the most-used tags over the last 24 hours.
func (r *HashtagRepo) Trending(ctx context.Context, limit int) ([]TrendingTag, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT h.tag, COUNT(ph.post_id) AS uses
		FROM hashtags h
		JOIN post_hashtags ph ON ph.hashtag_id = h.id
		JOIN posts p ON p.id = ph.post_id
		WHERE p.created_at >= NOW() - INTERVAL 24 HOUR
		GROUP BY h.id, h.tag
		ORDER BY uses DESC, h.tag ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TrendingTag
	for rows.Next() {
		var t TrendingTag
		if err := rows.Scan(&t.Tag, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func collectTags(rows *sql.Rows) ([]model.Hashtag, error) {
	defer rows.Close()
	var out []model.Hashtag
	for rows.Next() {
		var h model.Hashtag
		if err := rows.Scan(&h.ID, &h.Tag); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
