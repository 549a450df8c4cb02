// Package security owns password hashing and verification for account
// credentials.
package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode"

	"github.com/matthewhartstonge/argon2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100

	encodedHashPrefix = "$argon2id$"
)

// ErrPasswordPolicy is returned by Hash when the plaintext does not satisfy
// the password policy. The wrapped detail names the violated rule and is safe
// to show to the caller.
var ErrPasswordPolicy = errors.New("password policy violation")

// HasherConfig tunes the argon2id derivation and the bound on concurrent
// in-flight hashing operations.
type HasherConfig struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8

	// MaxConcurrent caps in-flight hash derivations; zero means twice the
	// number of CPUs.
	MaxConcurrent int64
}

// Hasher derives and verifies password hashes. Derivation is CPU-bound, so a
// weighted semaphore keeps concurrent hashing from starving other requests.
type Hasher struct {
	config argon2.Config
	sem    *semaphore.Weighted
	logger *zerolog.Logger
}

// NewHasher creates a Hasher. Cost settings below the library defaults are
// raised to them, keeping the derivation expensive enough to resist offline
// brute force.
func NewHasher(cfg HasherConfig, logger *zerolog.Logger) *Hasher {
	argonCfg := argon2.DefaultConfig()
	if cfg.TimeCost > argonCfg.TimeCost {
		argonCfg.TimeCost = cfg.TimeCost
	}
	if cfg.MemoryCost > argonCfg.MemoryCost {
		argonCfg.MemoryCost = cfg.MemoryCost
	}
	if cfg.Parallelism > argonCfg.Parallelism {
		argonCfg.Parallelism = cfg.Parallelism
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = int64(2 * runtime.NumCPU())
	}

	return &Hasher{
		config: argonCfg,
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
}

// Hash derives a salted argon2id hash from plaintext. It fails with
// ErrPasswordPolicy when the plaintext violates the password policy, and
// with the context error when ctx is done before a hashing slot frees up.
// The plaintext is never logged.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := ValidatePassword(plaintext); err != nil {
		return "", err
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	encoded, err := h.config.HashEncoded([]byte(plaintext))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Verify reports whether plaintext matches the encoded hash. Comparison is
// constant-time at the algorithm level. A malformed stored hash is treated as
// a mismatch and logged; Verify never returns an error for a wrong password.
func (h *Hasher) Verify(plaintext, encodedHash string) bool {
	ok, err := argon2.VerifyEncoded([]byte(plaintext), []byte(encodedHash))
	if err != nil {
		if h.logger != nil {
			h.logger.Warn().Err(err).Msg("stored password hash is malformed")
		}
		return false
	}

	return ok
}

// IsHashed reports whether value is already an encoded argon2id hash, so an
// idempotent re-save never re-hashes a hashed value.
func IsHashed(value string) bool {
	return strings.HasPrefix(value, encodedHashPrefix)
}

// ValidatePassword checks the password policy: 8-100 characters, at least one
// uppercase letter, one lowercase letter, and one digit, and no whitespace.
func ValidatePassword(plaintext string) error {
	runes := []rune(plaintext)
	if len(runes) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordPolicy, minPasswordLength)
	}
	if len(runes) > maxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrPasswordPolicy, maxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range runes {
		switch {
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: must not contain whitespace", ErrPasswordPolicy)
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPasswordPolicy)
	}
	if !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPasswordPolicy)
	}
	if !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrPasswordPolicy)
	}

	return nil
}
