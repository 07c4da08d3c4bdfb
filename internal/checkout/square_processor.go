package checkout

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/square"
)

type squareAPI interface {
	CreateOrder(ctx context.Context, params square.OrderCreateParams) (*sq.Order, error)
	GetOrder(ctx context.Context, orderID string) (*sq.Order, error)
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

type squareProcessor struct {
	api squareAPI
}

// NewSquareProcessor adapts the Square Orders and Payments APIs. The order
// reference id carries the correlation token; capture pays the order with
// the buyer's card source and completes it immediately.
func NewSquareProcessor(api squareAPI) (Processor, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square client required")
	}
	return &squareProcessor{api: api}, nil
}

func (p *squareProcessor) CreateOrder(ctx context.Context, req OrderRequest) (*OrderHandle, error) {
	order, err := p.api.CreateOrder(ctx, square.OrderCreateParams{
		ReferenceID:    req.CorrelationToken,
		Name:           req.SoftDescriptor,
		Note:           req.Description,
		AmountCents:    toMinorUnits(req.Amount, req.Currency),
		Currency:       req.Currency.String(),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	handle := &OrderHandle{OrderID: deref(order.ID)}
	if order.State != nil {
		handle.Status = string(*order.State)
	}
	return handle, nil
}

func (p *squareProcessor) CaptureOrder(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	if strings.TrimSpace(req.SourceToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source token is required")
	}
	order, err := p.api.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	var amount int64
	currency := ""
	if order.TotalMoney != nil {
		if order.TotalMoney.Amount != nil {
			amount = *order.TotalMoney.Amount
		}
		if order.TotalMoney.Currency != nil {
			currency = string(*order.TotalMoney.Currency)
		}
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "square order has no payable total").
			WithDetails(map[string]any{"order_id": req.OrderID})
	}

	payment, err := p.api.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    amount,
		Currency:       currency,
		SourceID:       req.SourceToken,
		OrderID:        deref(order.ID),
		CustomerID:     deref(order.CustomerID),
		Autocomplete:   true,
		IdempotencyKey: req.IdempotencyKey,
		ReferenceID:    deref(order.ReferenceID),
	})
	if err != nil {
		return nil, err
	}

	payerID := deref(payment.CustomerID)
	if payerID == "" {
		payerID = deref(payment.ID)
	}
	return &CaptureResult{
		OrderID:          deref(order.ID),
		PayerID:          payerID,
		Status:           strings.ToUpper(deref(payment.Status)),
		CorrelationToken: deref(order.ReferenceID),
	}, nil
}

func toMinorUnits(amount decimal.Decimal, currency enums.Currency) int64 {
	return amount.Shift(currency.MinorUnits()).Round(0).IntPart()
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
