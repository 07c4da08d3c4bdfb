package controllers

import (
	"context"
	"net/http"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	"github.com/vaultcast/storefront-backend/internal/procenv"
	"github.com/vaultcast/storefront-backend/internal/sitesettings"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

// SettingsService is satisfied by *sitesettings.Service.
type SettingsService interface {
	Get(ctx context.Context) (models.SiteSettings, error)
	Update(ctx context.Context, input sitesettings.Input) (models.SiteSettings, error)
	InspectCredential(credential string) procenv.Inspection
}

type settingsRequest struct {
	TelegramUsername     string `json:"telegram_username" validate:"required,max=33"`
	SiteName             string `json:"site_name" validate:"max=100"`
	Description          string `json:"description" validate:"max=500"`
	ProcessorClientID    string `json:"processor_client_id" validate:"max=128"`
	ProcessorEnvironment string `json:"processor_environment" validate:"max=16"`
}

// PublicSettings returns the storefront settings shown to buyers.
func PublicSettings(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("settings service"))
			return
		}
		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sitesettings.ToPublicDTO(settings))
	}
}

func AdminGetSettings(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("settings service"))
			return
		}
		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sitesettings.ToAdminDTO(settings))
	}
}

func AdminUpdateSettings(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("settings service"))
			return
		}
		var body settingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.Update(r.Context(), sitesettings.Input{
			TelegramUsername:     body.TelegramUsername,
			SiteName:             body.SiteName,
			Description:          body.Description,
			ProcessorClientID:    body.ProcessorClientID,
			ProcessorEnvironment: body.ProcessorEnvironment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "processor_environment", settings.ProcessorEnvironment.String()), "settings.updated")
		responses.WriteSuccess(w, sitesettings.ToAdminDTO(settings))
	}
}

// AdminInspectProcessorEnvironment reports which environment a processor
// credential belongs to. The credential is echoed back masked only.
func AdminInspectProcessorEnvironment(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("settings service"))
			return
		}
		credential := validators.QueryString(r, "credential")
		if credential == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "credential is required"))
			return
		}
		responses.WriteSuccess(w, svc.InspectCredential(credential))
	}
}
