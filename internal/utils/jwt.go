package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens and reset binding
	"encoding/hex"  // hex encoding
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and carried in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  Raw is returned to the client; only its SHA-256 hash is stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  Claims carry
// the subject (user id), the admin flag, expiration and issued-at.
func NewAccessToken(secret string, userID uint64, isAdmin bool, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"adm": isAdmin,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash prevents stolen database rows from being
// replayed as live sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ErrInvalidResetToken covers every reset-token failure: bad signature,
// expiry, wrong purpose, stale password version.  Callers get no detail.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetPurpose = "pwreset"

// PasswordVersion derives a short fingerprint of the current password hash.
// Reset tokens embed it, so changing the password invalidates every token
// issued before the change; a completed reset cannot be replayed.
func PasswordVersion(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

// NewResetToken signs a stateless password-reset token for a user.  The
// token is bound to the account id, an expiry and the current password
// version.
func NewResetToken(secret string, userID uint64, passwordHash string, ttlMin int) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"pur": resetPurpose,
		"pwv": PasswordVersion(passwordHash),
		"exp": now.Add(time.Duration(ttlMin) * time.Minute).Unix(),
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseResetToken verifies signature, expiry and purpose, returning the
// account id and the embedded password version.  Any failure collapses to
// ErrInvalidResetToken.
func ParseResetToken(secret, token string) (uint64, string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidResetToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidResetToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidResetToken
	}
	if pur, _ := claims["pur"].(string); pur != resetPurpose {
		return 0, "", ErrInvalidResetToken
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return 0, "", ErrInvalidResetToken
	}
	pwv, _ := claims["pwv"].(string)
	if pwv == "" {
		return 0, "", ErrInvalidResetToken
	}
	return uid, pwv, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
