// Package handler exposes the HTTP surface of the account service.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-api/internal/apperror"
	"github.com/vasapolrittideah/account-api/internal/auth"
	"github.com/vasapolrittideah/account-api/internal/config"
	"github.com/vasapolrittideah/account-api/internal/middleware"
	"github.com/vasapolrittideah/account-api/internal/repository"
	"github.com/vasapolrittideah/account-api/internal/usecase"
)

// Handler bundles the HTTP handlers with their dependencies.
type Handler struct {
	cfg           config.Config
	logger        *zerolog.Logger
	accounts      repository.AccountRepository
	issuer        *auth.Issuer
	authUsecase   *usecase.Auth
	accountUC     *usecase.Account
	passwordReset *usecase.PasswordReset
	verification  *usecase.EmailVerification
}

// New creates the handler set.
func New(
	cfg config.Config,
	logger *zerolog.Logger,
	accounts repository.AccountRepository,
	issuer *auth.Issuer,
	authUsecase *usecase.Auth,
	accountUC *usecase.Account,
	passwordReset *usecase.PasswordReset,
	verification *usecase.EmailVerification,
) *Handler {
	return &Handler{
		cfg:           cfg,
		logger:        logger,
		accounts:      accounts,
		issuer:        issuer,
		authUsecase:   authUsecase,
		accountUC:     accountUC,
		passwordReset: passwordReset,
		verification:  verification,
	}
}

// Routes builds the service router. Unknown paths and known paths hit with an
// unsupported method both answer through the error taxonomy.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperror.Write(w, h.logger, "", apperror.New(apperror.NotFound, "resource not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperror.Write(w, h.logger, "", apperror.New(apperror.MethodNotAllowed, "method not allowed"))
	})

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.Post("/signin", h.SignIn)
			r.Post("/signout", h.SignOut)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
			r.Post("/verify-email", h.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(h.issuer, h.accounts, h.logger))
				r.Post("/refresh", h.Refresh)
				r.Post("/verification", h.RequestVerification)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(middleware.Authenticate(h.issuer, h.accounts, h.logger))
			r.Get("/me", h.Me)
			r.Delete("/me", h.DeleteMe)
		})
	})

	return r
}

// Health answers liveness probes and the registry health check.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
