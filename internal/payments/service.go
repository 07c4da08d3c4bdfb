package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const maxSessionIDLen = 64

// Store is the payment record lifecycle. Only pending records transition,
// and only to completed or failed.
type Store interface {
	Create(ctx context.Context, draft Draft) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	UpdateStatus(ctx context.Context, id string, transition Transition) (*Record, error)
	ListByProduct(ctx context.Context, productID string) ([]Record, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error)
}

type ServiceParams struct {
	Repo  Repository
	Clock func() time.Time
	NewID func() string
}

type service struct {
	repo  Repository
	clock func() time.Time
	newID func() string
}

func NewService(params ServiceParams) (Store, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment repository required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &service{repo: params.Repo, clock: clock, newID: newID}, nil
}

func (s *service) Create(ctx context.Context, draft Draft) (*Record, error) {
	currency, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:             s.newID(),
		ProductID:      strings.TrimSpace(draft.ProductID),
		ProductTitle:   strings.TrimSpace(draft.ProductTitle),
		BuyerSessionID: strings.TrimSpace(draft.BuyerSessionID),
		Amount:         draft.Amount,
		Currency:       currency,
		Status:         enums.PaymentStatusPending,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create payment record")
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, id string) (*Record, error) {
	record, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapRepoError(err, "load payment record")
	}
	return record, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, transition Transition) (*Record, error) {
	update, err := s.buildUpdate(transition)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.TransitionFromPending(ctx, strings.TrimSpace(id), update)
	if err != nil {
		return nil, mapRepoError(err, "update payment status")
	}
	return record, nil
}

func (s *service) ListByProduct(ctx context.Context, productID string) ([]Record, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	records, err := s.repo.ListByProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list payment records")
	}
	return records, nil
}

func (s *service) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	records, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list pending payment records")
	}
	return records, nil
}

func (s *service) buildUpdate(transition Transition) (statusUpdate, error) {
	if !transition.Status.IsValid() {
		return statusUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
			WithDetails(map[string]any{"status": transition.Status})
	}

	orderID := strings.TrimSpace(transition.ExternalOrderID)
	payerID := strings.TrimSpace(transition.ExternalPayerID)

	switch transition.Status {
	case enums.PaymentStatusPending:
		return statusUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "payment records cannot return to pending")
	case enums.PaymentStatusCompleted:
		if orderID == "" || payerID == "" {
			return statusUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "external order and payer ids are required to complete a payment")
		}
		now := s.clock().UTC()
		return statusUpdate{
			Status:          enums.PaymentStatusCompleted,
			ExternalOrderID: &orderID,
			ExternalPayerID: &payerID,
			CompletedAt:     &now,
		}, nil
	default:
		return statusUpdate{
			Status:          enums.PaymentStatusFailed,
			ExternalOrderID: optionalString(orderID),
			FailureReason:   optionalString(strings.TrimSpace(transition.Reason)),
		}, nil
	}
}

func validateDraft(draft Draft) (enums.Currency, error) {
	details := map[string]string{}
	if _, err := uuid.Parse(strings.TrimSpace(draft.ProductID)); err != nil {
		details["product_id"] = "must be a uuid"
	}
	if strings.TrimSpace(draft.ProductTitle) == "" {
		details["product_title"] = "is required"
	}
	if draft.Amount.IsNegative() {
		details["amount"] = "must not be negative"
	}
	currency, err := enums.ParseCurrency(draft.Currency)
	if err != nil {
		details["currency"] = "must be a supported ISO-4217 code"
	}
	if len(strings.TrimSpace(draft.BuyerSessionID)) > maxSessionIDLen {
		details["buyer_session_id"] = "is too long"
	}
	if draft.Status != "" && draft.Status != enums.PaymentStatusPending {
		details["status"] = "initial status must be pending"
	}
	if len(details) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment draft").WithDetails(details)
	}
	return currency, nil
}

func mapRepoError(err error, action string) error {
	switch {
	case errors.Is(err, errRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment record not found")
	case errors.Is(err, errNotPending):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "payment record is already terminal")
	default:
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, action)
	}
}
