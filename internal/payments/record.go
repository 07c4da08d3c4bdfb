package payments

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

var (
	errRecordNotFound = errors.New("payment record not found")
	errNotPending     = errors.New("payment record is not pending")
)

// Record is one checkout attempt. CompletedAt is set exactly when Status is
// completed; external ids are populated at that same transition.
// BuyerSessionID is the session that started the checkout, empty for
// records created outside the buyer flow.
type Record struct {
	ID              string
	ProductID       string
	ProductTitle    string
	BuyerSessionID  string
	Amount          decimal.Decimal
	Currency        enums.Currency
	Status          enums.PaymentStatus
	ExternalOrderID *string
	ExternalPayerID *string
	FailureReason   *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Draft is the input to Store.Create. Status may be left empty.
type Draft struct {
	ProductID      string
	ProductTitle   string
	BuyerSessionID string
	Amount         decimal.Decimal
	Currency       string
	Status         enums.PaymentStatus
}

// Transition moves a pending record to a terminal status.
type Transition struct {
	Status          enums.PaymentStatus
	ExternalOrderID string
	ExternalPayerID string
	Reason          string
}

// statusUpdate is the repository-level write applied only while pending.
type statusUpdate struct {
	Status          enums.PaymentStatus
	ExternalOrderID *string
	ExternalPayerID *string
	FailureReason   *string
	CompletedAt     *time.Time
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}
