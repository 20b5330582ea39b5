package repository

import (
	"errors"

	"gorm.io/gorm"

	"identity_admin/internal/storage"
)

var (
	// ErrNotFound 查無資料
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 違反唯一鍵，例如同名資源在檢查後才被另一個請求寫入
	ErrDuplicate = errors.New("duplicate record")
)

func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

type Repositories struct {
	User        UserRepository
	ApiResource ApiResourceRepository
}

func NewRepositories(db *storage.Database) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		ApiResource: NewApiResourceRepository(db),
	}
}
