// Package payload defines the JSON request and response shapes of the HTTP
// surface. The password hash never appears in any response type.
package payload

import (
	"time"

	"github.com/vasapolrittideah/account-api/internal/model"
)

type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type AccountResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type AuthResponse struct {
	Account   AccountResponse `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewAccountResponse maps an account record to its outward shape.
func NewAccountResponse(account *model.Account) AccountResponse {
	return AccountResponse{
		ID:            account.ID.Hex(),
		Username:      account.Username,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		CreatedAt:     account.CreatedAt,
	}
}
