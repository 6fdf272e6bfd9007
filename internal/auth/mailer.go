package auth

import (
	"context"
	"log"
)

// LogMailer writes reset tokens to the process log instead of sending
// mail.  Real delivery is an external collaborator; this keeps the reset
// flow exercisable in development without an SMTP server.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, username, token string) error {
	log.Printf("password reset requested for %q: token=%s", username, token)
	return nil
}
