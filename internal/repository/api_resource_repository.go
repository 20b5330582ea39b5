package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity_admin/internal/models"
	"identity_admin/internal/storage"
)

// ListQuery 分頁查詢條件
type ListQuery struct {
	Filter  string
	OrderBy string // 已驗證過的欄位與方向，例如 "name asc"
	Offset  int
	Limit   int
}

type ApiResourceRepository interface {
	List(ctx context.Context, query ListQuery) ([]models.ApiResource, int64, error)
	FindAll(ctx context.Context) ([]models.ApiResource, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ApiResource, error)
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, resource *models.ApiResource) error
	Update(ctx context.Context, resource *models.ApiResource, replaceSecrets bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type apiResourceRepository struct {
	db *storage.Database
}

func NewApiResourceRepository(db *storage.Database) ApiResourceRepository {
	return &apiResourceRepository{db: db}
}

// withChildren 預載所有子集合，依插入順序排列
func withChildren(db *gorm.DB) *gorm.DB {
	byID := func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }
	return db.
		Preload("Secrets", byID).
		Preload("Scopes", byID).
		Preload("UserClaims", byID).
		Preload("Properties", byID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *apiResourceRepository) List(ctx context.Context, query ListQuery) ([]models.ApiResource, int64, error) {
	scoped := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&models.ApiResource{})
		if query.Filter != "" {
			like := "%" + likeEscaper.Replace(strings.ToLower(query.Filter)) + "%"
			tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, like, like)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = "name asc"
	}

	var resources []models.ApiResource
	err := withChildren(scoped()).
		Order(orderBy).
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&resources).Error
	if err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// FindAll 查詢所有資源
func (r *apiResourceRepository) FindAll(ctx context.Context) ([]models.ApiResource, error) {
	var resources []models.ApiResource
	err := withChildren(r.db.WithContext(ctx)).Order("name asc").Find(&resources).Error
	return resources, err
}

func (r *apiResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ApiResource, error) {
	var resource models.ApiResource
	err := withChildren(r.db.WithContext(ctx)).Where("id = ?", id).First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// ExistsByName 檢查名稱是否已被其他資源使用，excludeID 為 uuid.Nil 時不排除任何資源
func (r *apiResourceRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.ApiResource{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		tx = tx.Where("id <> ?", excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 建立資源，子集合由 gorm 一併寫入
func (r *apiResourceRepository) Create(ctx context.Context, resource *models.ApiResource) error {
	return translateError(r.db.WithContext(ctx).Create(resource).Error)
}

// Update 更新資源欄位並整批替換 scopes、claims、properties；
// replaceSecrets 為 true 時同時替換密鑰
func (r *apiResourceRepository) Update(ctx context.Context, resource *models.ApiResource, replaceSecrets bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ApiResource{}).Where("id = ?", resource.ID).Updates(map[string]interface{}{
			"name":                                    resource.Name,
			"display_name":                            resource.DisplayName,
			"description":                             resource.Description,
			"enabled":                                 resource.Enabled,
			"allowed_access_token_signing_algorithms": resource.AllowedAccessTokenSigningAlgorithms,
			"show_in_discovery_document":              resource.ShowInDiscoveryDocument,
			"updated_at":                              time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := deleteChildren(tx, resource.ID, replaceSecrets); err != nil {
			return err
		}

		for i := range resource.Scopes {
			resource.Scopes[i].ID = 0
			resource.Scopes[i].ApiResourceID = resource.ID
		}
		for i := range resource.UserClaims {
			resource.UserClaims[i].ID = 0
			resource.UserClaims[i].ApiResourceID = resource.ID
		}
		for i := range resource.Properties {
			resource.Properties[i].ID = 0
			resource.Properties[i].ApiResourceID = resource.ID
		}

		if len(resource.Scopes) > 0 {
			if err := tx.Create(&resource.Scopes).Error; err != nil {
				return err
			}
		}
		if len(resource.UserClaims) > 0 {
			if err := tx.Create(&resource.UserClaims).Error; err != nil {
				return err
			}
		}
		if len(resource.Properties) > 0 {
			if err := tx.Create(&resource.Properties).Error; err != nil {
				return err
			}
		}

		if replaceSecrets && len(resource.Secrets) > 0 {
			for i := range resource.Secrets {
				resource.Secrets[i].ID = 0
				resource.Secrets[i].ApiResourceID = resource.ID
			}
			if err := tx.Create(&resource.Secrets).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

// Delete 刪除資源與其所有子集合
func (r *apiResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id, true); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.ApiResource{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func deleteChildren(tx *gorm.DB, id uuid.UUID, includeSecrets bool) error {
	children := []interface{}{
		&models.ApiResourceScope{},
		&models.ApiResourceClaim{},
		&models.ApiResourceProperty{},
	}
	if includeSecrets {
		children = append(children, &models.ApiResourceSecret{})
	}

	for _, child := range children {
		if err := tx.Where("api_resource_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	return nil
}
