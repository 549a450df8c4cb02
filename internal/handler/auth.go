package handler

import (
	"net/http"
	"time"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/middleware"
	"github.com/vasapolrittideah/account-api/internal/payload"
	"github.com/vasapolrittideah/account-api/internal/usecase"
)

// SignUp creates an account and signs the caller in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req payload.SignUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	account, session, err := h.authUsecase.SignUp(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, payload.AuthResponse{
		Account:   payload.NewAccountResponse(account),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignIn verifies credentials and issues a session token.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req payload.SignInRequest
	if err := decodeAndValidate(r, &req); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	account, session, err := h.authUsecase.SignIn(r.Context(), req.Login, req.Password)
	if err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, payload.AuthResponse{
		Account:   payload.NewAccountResponse(account),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignOut clears the session cookie. The token itself stays valid until it
// expires since sessions are stateless.
func (h *Handler) SignOut(w http.ResponseWriter, _ *http.Request) {
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh issues a fresh session token for the authenticated account.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		apperror.Write(w, h.logger, "", apperror.New(apperror.Authentication, "unauthorized"))
		return
	}

	session, err := h.authUsecase.Refresh(r.Context(), account)
	if err != nil {
		apperror.Write(w, h.logger, account.ID.Hex(), err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, payload.TokenResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// ForgotPassword issues a password reset token. It reports success for
// unknown emails too, so the response cannot be used to enumerate accounts.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	if err := h.passwordReset.Request(r.Context(), req.Email); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	writeJSON(w, http.StatusAccepted, payload.MessageResponse{
		Message: "if the email exists, a password reset link has been sent",
	})
}

// ResetPassword consumes a reset token and installs the new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	if err := h.passwordReset.Reset(r.Context(), req.Token, req.Password); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "password has been reset"})
}

// VerifyEmail consumes a verification token and marks the email as verified.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyEmailRequest
	if err := decodeAndValidate(r, &req); err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	account, err := h.verification.Verify(r.Context(), req.Token)
	if err != nil {
		apperror.Write(w, h.logger, "", err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAccountResponse(account))
}

// RequestVerification re-issues a verification token for the authenticated
// account, replacing any earlier one.
func (h *Handler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		apperror.Write(w, h.logger, "", apperror.New(apperror.Authentication, "unauthorized"))
		return
	}

	if account.EmailVerified {
		apperror.Write(w, h.logger, account.ID.Hex(),
			apperror.New(apperror.Semantic, "email is already verified"))
		return
	}

	if err := h.verification.Request(r.Context(), account); err != nil {
		apperror.Write(w, h.logger, account.ID.Hex(), err)
		return
	}

	writeJSON(w, http.StatusAccepted, payload.MessageResponse{
		Message: "a verification link has been sent",
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, session usecase.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(h.cfg.CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}
