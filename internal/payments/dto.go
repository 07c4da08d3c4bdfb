package payments

import "time"

// RecordDTO is the admin-facing JSON view of a payment record.
type RecordDTO struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	ProductTitle    string     `json:"product_title"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	ExternalOrderID *string    `json:"external_order_id,omitempty"`
	ExternalPayerID *string    `json:"external_payer_id,omitempty"`
	FailureReason   *string    `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func ToDTO(record Record) RecordDTO {
	return RecordDTO{
		ID:              record.ID,
		ProductID:       record.ProductID,
		ProductTitle:    record.ProductTitle,
		Amount:          record.Amount.StringFixed(record.Currency.MinorUnits()),
		Currency:        string(record.Currency),
		Status:          string(record.Status),
		ExternalOrderID: record.ExternalOrderID,
		ExternalPayerID: record.ExternalPayerID,
		FailureReason:   record.FailureReason,
		CreatedAt:       record.CreatedAt,
		CompletedAt:     record.CompletedAt,
	}
}

func ToDTOs(records []Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, ToDTO(record))
	}
	return out
}
