package models

import (
	"time"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// SiteSettingsID is the primary key of the single settings row.
const SiteSettingsID = 1

type SiteSettings struct {
	ID                   int                        `gorm:"primaryKey"`
	TelegramUsername     string                     `gorm:"type:text;not null;default:''"`
	SiteName             string                     `gorm:"type:text;not null;default:''"`
	Description          string                     `gorm:"type:text;not null;default:''"`
	ProcessorClientID    string                     `gorm:"type:text;not null;default:''"`
	ProcessorEnvironment enums.ProcessorEnvironment `gorm:"type:text;not null;default:'sandbox'"`
	UpdatedAt            time.Time                  `gorm:"type:timestamptz;not null"`
}

func (SiteSettings) TableName() string {
	return "site_settings"
}
