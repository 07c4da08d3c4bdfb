package proofs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultcast/storefront-backend/internal/repo"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	"github.com/vaultcast/storefront-backend/pkg/pagination"
)

type ListFilter struct {
	Status *enums.ProofStatus
	Limit  int
	Cursor *pagination.Cursor
}

type Repository interface {
	Create(ctx context.Context, proof *models.PaymentProof) error
	Update(ctx context.Context, proof *models.PaymentProof) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ProofStatus, at time.Time) (*models.PaymentProof, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error)
	List(ctx context.Context, filter ListFilter) ([]models.PaymentProof, error)
}

type gormRepository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) Create(ctx context.Context, proof *models.PaymentProof) error {
	return r.DB(ctx).Create(proof).Error
}

func (r *gormRepository) Update(ctx context.Context, proof *models.PaymentProof) error {
	result := r.DB(ctx).Model(&models.PaymentProof{}).Where("id = ?", proof.ID).Updates(map[string]any{
		"image_url":     proof.ImageURL,
		"object_name":   proof.ObjectName,
		"amount":        proof.Amount,
		"customer_name": proof.CustomerName,
		"payment_date":  proof.PaymentDate,
		"status":        proof.Status,
		"updated_at":    proof.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStatus moves a proof to status and returns the stored row.
func (r *gormRepository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ProofStatus, at time.Time) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&proof).Error; err != nil {
			return err
		}
		proof.Status = status
		proof.UpdatedAt = at
		return tx.Model(&models.PaymentProof{}).Where("id = ?", id).Updates(map[string]any{
			"status":     proof.Status,
			"updated_at": proof.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.PaymentProof{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	if err := r.DB(ctx).Where("id = ?", id).First(&proof).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]models.PaymentProof, error) {
	query := r.DB(ctx).Model(&models.PaymentProof{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = repo.Before(query, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	var rows []models.PaymentProof
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
