package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"identity_admin/internal/storage"
)

// baseRepository 提供單一模型共用的建立與查詢
type baseRepository[T any] struct {
	db *storage.Database
}

func (r baseRepository[T]) create(ctx context.Context, model *T) error {
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// first 依條件查詢第一筆，查無資料時回傳 ErrNotFound
func (r baseRepository[T]) first(ctx context.Context, query string, args ...interface{}) (*T, error) {
	var model T
	err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}
