package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by the gorm repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Exists reports whether any row of model matches the condition.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateWhere applies updates to every row of model matching the condition
// and returns how many rows changed.
func (b Base) UpdateWhere(ctx context.Context, model any, updates map[string]any, query string, args ...any) (int64, error) {
	result := b.DB(ctx).Model(model).Where(query, args...).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Before narrows a newest-first listing to rows strictly after the
// (createdAt, id) position of the previous page.
func Before(query *gorm.DB, createdAt time.Time, id uuid.UUID) *gorm.DB {
	return query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
}
