package utils

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "BlackTwitter"

// NewTOTPSecret generates a fresh TOTP shared secret for a user and the
// matching otpauth:// provisioning URI for authenticator apps.
func NewTOTPSecret(username string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: username,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyTOTP checks a 6-digit time-based code against the shared secret,
// accepting one 30-second step of clock skew in either direction.  An
// empty secret never validates.
func VerifyTOTP(secret, code string) bool {
	if secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
