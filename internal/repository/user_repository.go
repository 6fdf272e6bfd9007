package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/blacktwitter/blacktwitter/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,password_hash,joined_at,is_admin,two_factor_enabled,two_factor_secret"

// Create inserts a user and returns its ID.  The caller supplies the
// bcrypt hash; plaintext never reaches this layer.  Usernames are matched
// exactly and case-sensitively; only surrounding whitespace is trimmed.
// Uniqueness is left to the database constraint so concurrent
// registrations cannot race a read-then-write check.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (uint64, error) {
	username = strings.TrimSpace(username)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		username, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ListAll returns every account ordered by join date, for the admin view.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY joined_at ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SearchUsers finds accounts whose username starts with the query.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, username, joined_at FROM users WHERE username LIKE CONCAT(?, '%') ORDER BY username LIMIT ?",
		query, limit)
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

// UpdatePasswordHash replaces the stored hash for an account.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTwoFactor updates the 2FA columns together.  A secret awaiting
// confirmation is stored with enabled=false; enabling requires a secret,
// which keeps the enabled-implies-secret invariant in one place.
func (r *UserRepo) SetTwoFactor(ctx context.Context, id uint64, enabled bool, secret string) error {
	if enabled && secret == "" {
		return ErrConflict
	}
	var sec sql.NullString
	if secret != "" {
		sec = sql.NullString{String: secret, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET two_factor_enabled=?, two_factor_secret=? WHERE id=?",
		enabled, sec, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTwoFactor disables 2FA and removes the secret in one statement.
func (r *UserRepo) ClearTwoFactor(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET two_factor_enabled=0, two_factor_secret=NULL WHERE id=?", id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(s rowScanner) (model.User, error) {
	var (
		u      model.User
		secret sql.NullString
	)
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.JoinedAt,
		&u.IsAdmin, &u.TwoFactorEnabled, &secret)
	if err != nil {
		return model.User{}, err
	}
	u.TwoFactorSecret = secret.String
	return u, nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}
