package auth

import "errors"

// ErrInvalidCredentials merges "no such user" and "wrong password" into one
// value so login responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidTwoFactorCode is returned for an unknown or expired challenge
// as well as for a wrong code; callers get no hint which.
var ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")

// ErrTwoFactorNotEnabled is returned when confirming or disabling 2FA on an
// account that never started enrollment.
var ErrTwoFactorNotEnabled = errors.New("two-factor not enabled")
