package sitesettings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultcast/storefront-backend/internal/repo"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
)

type Repository interface {
	Find(ctx context.Context) (*models.SiteSettings, error)
	Save(ctx context.Context, settings *models.SiteSettings) error
}

type gormRepository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(conn)}
}

func (r *gormRepository) Find(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	if err := r.DB(ctx).Where("id = ?", models.SiteSettingsID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save upserts the single settings row.
func (r *gormRepository) Save(ctx context.Context, settings *models.SiteSettings) error {
	settings.ID = models.SiteSettingsID
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
