package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// PaymentRecord is the durable audit entry for one checkout attempt.
type PaymentRecord struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	ProductID       uuid.UUID           `gorm:"type:uuid;not null"`
	ProductTitle    string              `gorm:"type:text;not null"`
	BuyerSessionID  *string             `gorm:"type:text"`
	Amount          decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Currency        enums.Currency      `gorm:"type:char(3);not null"`
	Status          enums.PaymentStatus `gorm:"type:payment_status;not null"`
	ExternalOrderID *string             `gorm:"type:text"`
	ExternalPayerID *string             `gorm:"type:text"`
	FailureReason   *string             `gorm:"type:text"`
	CreatedAt       time.Time           `gorm:"type:timestamptz;not null"`
	CompletedAt     *time.Time          `gorm:"type:timestamptz"`
}
