// Package notify is the narrow seam through which ephemeral tokens reach the
// account holder. Actual delivery (SMTP, queues) is outside this subsystem.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sender delivers freshly issued ephemeral tokens to an account's email
// address.
type Sender interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
	SendEmailVerification(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogSender is a Sender that records issuance without delivering anything.
// Token values are only written at debug level.
type LogSender struct {
	logger *zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	s.logger.Info().Str("email", email).Time("expires_at", expiresAt).Msg("password reset token issued")
	s.logger.Debug().Str("token", token).Msg("password reset token value")
	return nil
}

func (s *LogSender) SendEmailVerification(_ context.Context, email, token string, expiresAt time.Time) error {
	s.logger.Info().Str("email", email).Time("expires_at", expiresAt).Msg("email verification token issued")
	s.logger.Debug().Str("token", token).Msg("email verification token value")
	return nil
}
