package controllers

import (
	"net/http"

	"github.com/vaultcast/storefront-backend/api/middleware"
	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	"github.com/vaultcast/storefront-backend/internal/auth"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

// AdminAuthLogin exchanges the admin credentials for an access token.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth service"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, result)
	}
}

// AdminAuthLogout revokes the session behind the presented access token.
func AdminAuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth service"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
