package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account represents an identity and credential record in the authentication system.
//
// The ephemeral token fields come in token/expiry pairs: a token is never stored
// without its expiry, and clearing one clears the other. DeletedAt is written as
// an explicit null for live accounts so the partial unique indexes can key on it.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`

	PasswordResetToken          *string    `bson:"password_reset_token,omitempty"`
	PasswordResetTokenExpiresAt *time.Time `bson:"password_reset_token_expires_at,omitempty"`

	EmailVerificationToken          *string    `bson:"email_verification_token,omitempty"`
	EmailVerificationTokenExpiresAt *time.Time `bson:"email_verification_token_expires_at,omitempty"`

	EmailVerified bool       `bson:"email_verified"`
	DeletedAt     *time.Time `bson:"deleted_at"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

// Deleted reports whether the account has been soft-deleted.
func (a *Account) Deleted() bool {
	return a.DeletedAt != nil
}
