package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// CaptureStatusCompleted is the only processor capture status that completes a payment.
const CaptureStatusCompleted = "COMPLETED"

// ErrProcessorUnavailable is returned by the processor used when no
// payment processor credentials are configured.
var ErrProcessorUnavailable = errors.New("payment processor not configured")

// Processor is the external payment processor boundary. Order text must
// already be sanitized by the caller.
type Processor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error)
	CaptureOrder(ctx context.Context, req CaptureRequest) (*CaptureResult, error)
}

type OrderRequest struct {
	Description      string
	SoftDescriptor   string
	Amount           decimal.Decimal
	Currency         enums.Currency
	CorrelationToken string
	IdempotencyKey   string
}

type OrderHandle struct {
	OrderID string
	Status  string
}

type CaptureRequest struct {
	OrderID        string
	SourceToken    string
	IdempotencyKey string
}

// CaptureResult echoes the correlation token the order was created with.
type CaptureResult struct {
	OrderID          string
	PayerID          string
	Status           string
	CorrelationToken string
}

type unavailableProcessor struct{}

// UnavailableProcessor fails every order attempt.
func UnavailableProcessor() Processor {
	return unavailableProcessor{}
}

func (unavailableProcessor) CreateOrder(context.Context, OrderRequest) (*OrderHandle, error) {
	return nil, ErrProcessorUnavailable
}

func (unavailableProcessor) CaptureOrder(context.Context, CaptureRequest) (*CaptureResult, error) {
	return nil, ErrProcessorUnavailable
}
