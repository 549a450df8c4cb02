// Package middleware provides the request-boundary HTTP middleware of the
// account service, including the authentication gate.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/auth"
	"github.com/vasapolrittideah/account-api/internal/model"
	"github.com/vasapolrittideah/account-api/internal/repository"
)

// SessionCookieName is the cookie carrying the session token on the
// web-facing surface. The API surface uses the Authorization header.
const SessionCookieName = "jwt"

type accountContextKey struct{}

// AccountFromContext returns the authenticated account attached by
// Authenticate, if any.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*model.Account)
	return account, ok
}

// Authenticate is the request-boundary auth gate. It extracts the session
// token from the Authorization header or the session cookie, verifies it
// cryptographically, resolves the account (excluding soft-deleted records),
// and attaches it to the request context. Rejections are uniform 401s; only
// an expired token gets its own message. The account is never mutated here.
func Authenticate(
	issuer *auth.Issuer,
	accounts repository.AccountRepository,
	logger *zerolog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r)
			if !ok {
				apperror.Write(w, logger, "", apperror.New(apperror.Authentication, "unauthorized"))
				return
			}

			accountID, err := issuer.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					apperror.Write(w, logger, "", apperror.New(apperror.Authentication, "token expired"))
					return
				}
				apperror.Write(w, logger, "", apperror.New(apperror.Authentication, "unauthorized"))
				return
			}

			account, err := accounts.GetByID(r.Context(), accountID)
			if err != nil {
				if apperror.Is(err, apperror.NotFound) {
					apperror.Write(w, logger, accountID, apperror.New(apperror.Authentication, "unauthorized"))
					return
				}
				// Store failures and anything unrecognized go through the
				// taxonomy rather than being swallowed as 401s.
				apperror.Write(w, logger, accountID, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey{}, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken accepts both transports: a bearer Authorization header, then
// the httpOnly session cookie.
func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return cookie.Value, true
}
