package model

import "time"

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column.  The password hash is a bcrypt digest and
// is never serialized to clients; handlers define separate response types
// with the appropriate JSON tags.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Username         – unique username, immutable after creation.
//	PasswordHash     – bcrypt hashed password.
//	JoinedAt         – timestamp of account creation.
//	IsAdmin          – whether the account has administrative rights.
//	TwoFactorEnabled – whether TOTP login is required.
//	TwoFactorSecret  – base32 shared secret; empty unless 2FA is enabled or
//	                   pending confirmation.
type User struct {
	ID               uint64    // users.id
	Username         string    // users.username
	PasswordHash     string    // users.password_hash
	JoinedAt         time.Time // users.joined_at
	IsAdmin          bool      // users.is_admin
	TwoFactorEnabled bool      // users.two_factor_enabled
	TwoFactorSecret  string    // users.two_factor_secret (empty when disabled)
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
