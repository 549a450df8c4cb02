// Package apperror defines the closed set of operation-error kinds that may
// cross the subsystem boundary, and the single place where they are written
// out as HTTP responses.
package apperror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// Kind classifies an operation error into one of the protocol-level outcomes.
type Kind uint8

const (
	// Authentication covers absent or invalid credentials and invalid or
	// expired tokens.
	Authentication Kind = iota
	// Authorization covers authenticated-but-forbidden requests.
	Authorization
	// Validation covers structurally invalid input (schema, type, format).
	Validation
	// Semantic covers structurally valid but domain-invalid input.
	Semantic
	// NotFound covers references to absent resources.
	NotFound
	// Conflict covers state conflicting with a concurrent change, such as a
	// duplicate unique key race.
	Conflict
	// Database covers failures of the underlying store.
	Database
	// Internal covers unclassified internal failures.
	Internal
	// MethodNotAllowed covers HTTP methods not supported on a route.
	MethodNotAllowed
)

// Status returns the fixed protocol status for the kind.
func (k Kind) Status() int {
	switch k {
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case Validation, Semantic:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case Validation:
		return "validation"
	case Semantic:
		return "semantic"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Database:
		return "database"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}

// Error is a classified operation error. Its message is safe to return to the
// caller; the wrapped cause is not and stays server-side.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a classified error with a caller-visible message.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap creates a classified error that keeps its cause for server-side logs.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the caller-visible message.
func (e *Error) Message() string { return e.message }

// Status returns the protocol status of the error's kind.
func (e *Error) Status() int { return e.kind.Status() }

// KindOf extracts the classification from err, reporting false when err is
// not part of the taxonomy.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind, true
	}
	return Internal, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

type errorResponse struct {
	Error string `json:"error"`
}

// Write reports err to the HTTP caller. Taxonomy errors surface their own
// status and message verbatim. JSON type and syntax failures from request
// decoding map to 400. Everything else becomes a generic 500; the original
// message is only logged server-side, with the acting account id (when known)
// as correlation context.
func Write(w http.ResponseWriter, logger *zerolog.Logger, accountID string, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Status() >= http.StatusInternalServerError {
			logServerError(logger, accountID, err)
		}
		writeJSON(w, ae.Status(), ae.Message())
		return
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		writeJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	logServerError(logger, accountID, err)
	writeJSON(w, http.StatusInternalServerError, "internal server error")
}

func logServerError(logger *zerolog.Logger, accountID string, err error) {
	if logger == nil {
		return
	}
	evt := logger.Error().Err(err)
	if accountID != "" {
		evt = evt.Str("account_id", accountID)
	}
	evt.Msg("request failed")
}

func writeJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
