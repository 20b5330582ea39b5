package repository

import (
	"context"

	"identity_admin/internal/models"
	"identity_admin/internal/storage"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type userRepository struct {
	base baseRepository[models.User]
}

func NewUserRepository(db *storage.Database) UserRepository {
	return &userRepository{base: baseRepository[models.User]{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.base.create(ctx, user)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.base.first(ctx, "username = ?", username)
}
