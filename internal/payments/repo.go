package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultcast/storefront-backend/internal/repo"
	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// Repository persists payment records. TransitionFromPending must apply its
// update in a single conditional write.
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	TransitionFromPending(ctx context.Context, id string, update statusUpdate) (*Record, error)
	ListByProduct(ctx context.Context, productID string) ([]Record, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository returns a postgres-backed payment record repository.
func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) Insert(ctx context.Context, record *Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}
	return r.DB(ctx).Create(model).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errRecordNotFound
	}
	var model models.PaymentRecord
	if err := r.DB(ctx).Where("id = ?", uid).First(&model).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	return fromModel(model), nil
}

func (r *gormRepository) TransitionFromPending(ctx context.Context, id string, update statusUpdate) (*Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errRecordNotFound
	}

	updates := map[string]any{"status": update.Status}
	if update.ExternalOrderID != nil {
		updates["external_order_id"] = *update.ExternalOrderID
	}
	if update.ExternalPayerID != nil {
		updates["external_payer_id"] = *update.ExternalPayerID
	}
	if update.FailureReason != nil {
		updates["failure_reason"] = *update.FailureReason
	}
	if update.CompletedAt != nil {
		updates["completed_at"] = *update.CompletedAt
	}

	changed, err := r.UpdateWhere(ctx, &models.PaymentRecord{}, updates,
		"id = ? AND status = ?", uid, enums.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	if changed == 0 {
		found, err := r.Exists(ctx, &models.PaymentRecord{}, "id = ?", uid)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errRecordNotFound
		}
		return nil, errNotPending
	}

	return r.FindByID(ctx, id)
}

func (r *gormRepository) ListByProduct(ctx context.Context, productID string) ([]Record, error) {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return []Record{}, nil
	}
	var rows []models.PaymentRecord
	if err := r.DB(ctx).
		Where("product_id = ?", uid).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromModels(rows), nil
}

func (r *gormRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	query := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.PaymentRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromModels(rows), nil
}

func toModel(record *Record) (*models.PaymentRecord, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, err
	}
	productID, err := uuid.Parse(record.ProductID)
	if err != nil {
		return nil, err
	}
	return &models.PaymentRecord{
		ID:              id,
		ProductID:       productID,
		ProductTitle:    record.ProductTitle,
		BuyerSessionID:  optionalString(record.BuyerSessionID),
		Amount:          record.Amount,
		Currency:        record.Currency,
		Status:          record.Status,
		ExternalOrderID: record.ExternalOrderID,
		ExternalPayerID: record.ExternalPayerID,
		FailureReason:   record.FailureReason,
		CreatedAt:       record.CreatedAt,
		CompletedAt:     record.CompletedAt,
	}, nil
}

func fromModel(model models.PaymentRecord) *Record {
	var sessionID string
	if model.BuyerSessionID != nil {
		sessionID = *model.BuyerSessionID
	}
	return &Record{
		ID:              model.ID.String(),
		ProductID:       model.ProductID.String(),
		ProductTitle:    model.ProductTitle,
		BuyerSessionID:  sessionID,
		Amount:          model.Amount,
		Currency:        model.Currency,
		Status:          model.Status,
		ExternalOrderID: model.ExternalOrderID,
		ExternalPayerID: model.ExternalPayerID,
		FailureReason:   model.FailureReason,
		CreatedAt:       model.CreatedAt,
		CompletedAt:     model.CompletedAt,
	}
}

func fromModels(rows []models.PaymentRecord) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, *fromModel(row))
	}
	return out
}
