package database

import (
	"context"
	"database/sql"
	"log"
)

// schema holds the idempotent table definitions.  Username uniqueness lives
// here as a constraint rather than in application code: concurrent
// registrations race a read-then-write check, the index does not.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		two_factor_enabled TINYINT(1) NOT NULL DEFAULT 0,
		two_factor_secret VARCHAR(64) NULL,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		content VARCHAR(280) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_posts_user (user_id),
		KEY idx_posts_created (created_at),
		CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		post_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		content VARCHAR(280) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_comments_post (post_id),
		CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts (id),
		CONSTRAINT fk_comments_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id BIGINT UNSIGNED NOT NULL,
		followee_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (follower_id, followee_id),
		KEY idx_follows_followee (followee_id),
		CONSTRAINT fk_follows_follower FOREIGN KEY (follower_id) REFERENCES users (id),
		CONSTRAINT fk_follows_followee FOREIGN KEY (followee_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS likes (
		user_id BIGINT UNSIGNED NOT NULL,
		post_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, post_id),
		KEY idx_likes_post (post_id),
		CONSTRAINT fk_likes_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_likes_post FOREIGN KEY (post_id) REFERENCES posts (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS hashtags (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tag VARCHAR(64) NOT NULL,
		UNIQUE KEY uq_hashtags_tag (tag)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS post_hashtags (
		post_id BIGINT UNSIGNED NOT NULL,
		hashtag_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (post_id, hashtag_id),
		KEY idx_post_hashtags_tag (hashtag_id),
		CONSTRAINT fk_ph_post FOREIGN KEY (post_id) REFERENCES posts (id),
		CONSTRAINT fk_ph_tag FOREIGN KEY (hashtag_id) REFERENCES hashtags (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		recipient_id BIGINT UNSIGNED NOT NULL,
		sender_id BIGINT UNSIGNED NOT NULL,
		kind VARCHAR(20) NOT NULL,
		post_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		read_at DATETIME NULL,
		KEY idx_notifications_recipient (recipient_id, read_at),
		CONSTRAINT fk_notif_recipient FOREIGN KEY (recipient_id) REFERENCES users (id),
		CONSTRAINT fk_notif_sender FOREIGN KEY (sender_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates all tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAdmin seeds the admin account when the users table is empty.  The
// check is COUNT over the whole table, not a lookup of the admin username,
// so a second startup (or a renamed admin) never creates a duplicate seed.
func EnsureAdmin(ctx context.Context, db *sql.DB, username, passwordHash string) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, is_admin) VALUES (?,?,1)",
		username, passwordHash)
	if err != nil {
		return err
	}
	log.Printf("seeded admin account %q", username)
	return nil
}
