package handler

import (
	"net/http"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/middleware"
	"github.com/vasapolrittideah/account-api/internal/payload"
)

// Me returns the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		apperror.Write(w, h.logger, "", apperror.New(apperror.Authentication, "unauthorized"))
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAccountResponse(account))
}

// DeleteMe soft-deletes the authenticated account and clears the session
// cookie. The bearer token stays cryptographically valid until expiry, but the
// auth gate stops resolving the account immediately.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		apperror.Write(w, h.logger, "", apperror.New(apperror.Authentication, "unauthorized"))
		return
	}

	if err := h.accountUC.Delete(r.Context(), account.ID.Hex()); err != nil {
		apperror.Write(w, h.logger, account.ID.Hex(), err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
