package utils

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost.  The digest is
// self-describing (algorithm, cost and salt are embedded), so previously
// issued hashes keep verifying after a cost change.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
// Malformed or legacy digests fail closed: CompareHashAndPassword returns
// an error for anything it cannot parse, which maps to false here.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ErrWeakPassword is returned by ValidatePasswordStrength with a reason
// appended; callers match it with errors.Is.
var ErrWeakPassword = errors.New("weak password")

// ValidatePasswordStrength enforces the registration password policy:
// at least 8 characters with upper, lower, digit and symbol classes.
func ValidatePasswordStrength(pw string) error {
	if len(pw) < 8 {
		return errors.Join(ErrWeakPassword, errors.New("must be at least 8 characters long"))
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !upper:
		return errors.Join(ErrWeakPassword, errors.New("must contain an uppercase letter"))
	case !lower:
		return errors.Join(ErrWeakPassword, errors.New("must contain a lowercase letter"))
	case !digit:
		return errors.Join(ErrWeakPassword, errors.New("must contain a digit"))
	case !symbol:
		return errors.Join(ErrWeakPassword, errors.New("must contain a symbol"))
	}
	return nil
}
