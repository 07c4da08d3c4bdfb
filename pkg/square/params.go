package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

// OrderCreateParams describes a single-line order. Name and Note must
// already be processor-safe text.
type OrderCreateParams struct {
	LocationID     string
	ReferenceID    string
	Name           string
	Note           string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

func (p OrderCreateParams) toSquareRequest(idempotencyKey string) *sq.CreateOrderRequest {
	lineItem := &sq.OrderLineItem{
		Name:           ptrString(strings.TrimSpace(p.Name)),
		Quantity:       "1",
		BasePriceMoney: moneyPtr(p.AmountCents, p.Currency),
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		lineItem.Note = ptrString(trimmed)
	}
	order := &sq.Order{
		LocationID: p.LocationID,
		LineItems:  []*sq.OrderLineItem{lineItem},
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}
	return &sq.CreateOrderRequest{
		Order:          order,
		IdempotencyKey: ptrString(idempotencyKey),
	}
}

// PaymentCreateParams encapsulates the inputs for a Square payment. When
// OrderID is set the payment pays that order.
type PaymentCreateParams struct {
	AmountCents    int64
	Currency       string
	LocationID     string
	CustomerID     string
	SourceID       string
	OrderID        string
	Autocomplete   bool
	IdempotencyKey string
	Note           string
	ReferenceID    string
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		LocationID:     ptrString(p.LocationID),
		CustomerID:     ptrString(p.CustomerID),
		SourceID:       p.SourceID,
		OrderID:        ptrString(p.OrderID),
		Autocomplete:   boolPtr(p.Autocomplete),
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.ReferenceID = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
