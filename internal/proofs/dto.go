package proofs

import (
	"time"

	"github.com/vaultcast/storefront-backend/pkg/db/models"
)

type ProofDTO struct {
	ID           string     `json:"id"`
	ImageURL     string     `json:"image_url"`
	Amount       string     `json:"amount"`
	CustomerName *string    `json:"customer_name,omitempty"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicProofDTO omits the customer name.
type PublicProofDTO struct {
	ID          string     `json:"id"`
	ImageURL    string     `json:"image_url"`
	Amount      string     `json:"amount"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ListDTO[T any] struct {
	Proofs     []T    `json:"proofs"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func ToDTO(proof models.PaymentProof) ProofDTO {
	return ProofDTO{
		ID:           proof.ID.String(),
		ImageURL:     proof.ImageURL,
		Amount:       proof.Amount.StringFixed(2),
		CustomerName: proof.CustomerName,
		PaymentDate:  proof.PaymentDate,
		Status:       proof.Status.String(),
		CreatedAt:    proof.CreatedAt,
		UpdatedAt:    proof.UpdatedAt,
	}
}

func ToPublicDTO(proof models.PaymentProof) PublicProofDTO {
	return PublicProofDTO{
		ID:          proof.ID.String(),
		ImageURL:    proof.ImageURL,
		Amount:      proof.Amount.StringFixed(2),
		PaymentDate: proof.PaymentDate,
		CreatedAt:   proof.CreatedAt,
	}
}

func ToList(result *ListResult) ListDTO[ProofDTO] {
	out := ListDTO[ProofDTO]{Proofs: make([]ProofDTO, 0, len(result.Proofs)), NextCursor: result.NextCursor}
	for _, proof := range result.Proofs {
		out.Proofs = append(out.Proofs, ToDTO(proof))
	}
	return out
}

func ToPublicList(result *ListResult) ListDTO[PublicProofDTO] {
	out := ListDTO[PublicProofDTO]{Proofs: make([]PublicProofDTO, 0, len(result.Proofs)), NextCursor: result.NextCursor}
	for _, proof := range result.Proofs {
		out.Proofs = append(out.Proofs, ToPublicDTO(proof))
	}
	return out
}
