package videos

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

// ListFilter narrows catalog listings. A nil Status lists every status.
type ListFilter struct {
	Status *enums.VideoStatus
	Limit  int
	Cursor *pagination.Cursor
}

type Repository interface {
	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	List(ctx context.Context, filter ListFilter) ([]models.Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (bool, error)
}

type gormRepository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) Create(ctx context.Context, video *models.Video) error {
	return r.DB(ctx).Create(video).Error
}

func (r *gormRepository) Update(ctx context.Context, video *models.Video) error {
	result := r.DB(ctx).Model(&models.Video{}).Where("id = ?", video.ID).Updates(map[string]any{
		"title":         video.Title,
		"description":   video.Description,
		"price":         video.Price,
		"duration":      video.Duration,
		"status":        video.Status,
		"tags":          video.Tags,
		"video_file_id": video.VideoFileID,
		"video_url":     video.VideoURL,
		"file_size":     video.FileSize,
		"mime_type":     video.MimeType,
		"product_link":  video.ProductLink,
		"updated_at":    video.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.Video{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.DB(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// List orders by upload date, newest first, with created_at/id as the
// cursor tiebreak.
func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]models.Video, error) {
	query := r.DB(ctx).Model(&models.Video{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = repo.Before(query, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	var rows []models.Video
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementViews bumps the counter of a published video. It reports false
// when no published video has the id.
func (r *gormRepository) IncrementViews(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).Model(&models.Video{}).
		Where("id = ? AND status = ?", id, enums.VideoStatusPublished).
		Updates(map[string]any{
			"views":      gorm.Expr("views + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
