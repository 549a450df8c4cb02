// Package auth issues and verifies signed session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/account-api/internal/model"
)

var (
	// ErrTokenExpired reports a structurally valid token whose expiry has
	// elapsed.
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenMalformed reports a token with an invalid signature or
	// structure.
	ErrTokenMalformed = errors.New("session token malformed")
)

// Issuer produces and verifies stateless session tokens bound to an account
// identifier. Tokens are HS256-signed JWTs carrying exactly subject, issued-at,
// and expiry (plus the registered issuer claim); verification is purely
// cryptographic and never consults the store.
//
// There is no revocation list: sign-out only clears the client-side cookie,
// and a stolen token stays valid until its natural expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewIssuer creates an Issuer with the process-wide signing secret.
func NewIssuer(secret string, ttl time.Duration, issuer string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("session token ttl must be positive")
	}

	return &Issuer{secret: []byte(secret), ttl: ttl, issuer: issuer}, nil
}

// Issue signs a session token for the given account identifier and returns the
// token together with its expiry.
func (i *Issuer) Issue(accountID string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, errors.New("account id must not be empty")
	}

	now := time.Now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Refresh issues a fresh token for an already-authenticated account. It does
// not require the original token and must only be called from behind the auth
// gate.
func (i *Issuer) Refresh(account *model.Account) (string, time.Time, error) {
	return i.Issue(account.ID.Hex())
}

// Verify checks the token signature and expiry and returns the bound account
// identifier. It fails with ErrTokenExpired after the expiry has elapsed and
// with ErrTokenMalformed for any structural or signature problem.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}
