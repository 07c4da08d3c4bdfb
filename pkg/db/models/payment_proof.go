package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// PaymentProof is a buyer-submitted receipt for the manual payment channel.
type PaymentProof struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ImageURL     string            `gorm:"type:text;not null"`
	ObjectName   *string           `gorm:"type:text"`
	Amount       decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	CustomerName *string           `gorm:"type:text"`
	PaymentDate  *time.Time        `gorm:"type:timestamptz"`
	Status       enums.ProofStatus `gorm:"type:proof_status;not null"`
	CreatedAt    time.Time         `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time         `gorm:"type:timestamptz;not null"`
}
