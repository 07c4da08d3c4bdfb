package sitesettings

import (
	"time"

	"github.com/vaultcast/storefront-backend/pkg/db/models"
)

type PublicDTO struct {
	SiteName             string `json:"site_name"`
	Description          string `json:"description"`
	TelegramUsername     string `json:"telegram_username"`
	ProcessorClientID    string `json:"processor_client_id"`
	ProcessorEnvironment string `json:"processor_environment"`
}

type AdminDTO struct {
	PublicDTO
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func ToPublicDTO(settings models.SiteSettings) PublicDTO {
	return PublicDTO{
		SiteName:             settings.SiteName,
		Description:          settings.Description,
		TelegramUsername:     settings.TelegramUsername,
		ProcessorClientID:    settings.ProcessorClientID,
		ProcessorEnvironment: settings.ProcessorEnvironment.String(),
	}
}

func ToAdminDTO(settings models.SiteSettings) AdminDTO {
	out := AdminDTO{PublicDTO: ToPublicDTO(settings)}
	if !settings.UpdatedAt.IsZero() {
		updated := settings.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}
