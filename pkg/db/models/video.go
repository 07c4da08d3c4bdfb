package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// Video is a catalog listing. ProductLink is the delivery artifact released
// after a completed payment and is never rendered publicly.
type Video struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Title       string            `gorm:"type:text;not null"`
	Description string            `gorm:"type:text;not null;default:''"`
	Price       decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	Duration    string            `gorm:"type:text;not null;default:''"`
	UploadDate  time.Time         `gorm:"type:timestamptz;not null"`
	Status      enums.VideoStatus `gorm:"type:video_status;not null"`
	Views       int64             `gorm:"not null;default:0"`
	Tags        string            `gorm:"type:varchar(1000);not null;default:''"`
	VideoFileID *string           `gorm:"type:text"`
	VideoURL    *string           `gorm:"type:text"`
	FileSize    *int64
	MimeType    *string   `gorm:"type:text"`
	ProductLink *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}
