package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SharedSecretType IdentityServer 共享密鑰類型
const SharedSecretType = "SharedSecret"

// ApiResource 表示 identity server 中受保護的 API 資源
type ApiResource struct {
	ID                                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                                string    `gorm:"size:200;uniqueIndex;not null"`
	DisplayName                         string    `gorm:"size:200"`
	Description                         string    `gorm:"size:1000"`
	Enabled                             bool      `gorm:"not null"`
	AllowedAccessTokenSigningAlgorithms string    `gorm:"size:100"` // 以逗號分隔
	ShowInDiscoveryDocument             bool      `gorm:"not null"`
	CreatedAt                           time.Time
	UpdatedAt                           time.Time

	Secrets    []ApiResourceSecret   `gorm:"constraint:OnDelete:CASCADE"`
	Scopes     []ApiResourceScope    `gorm:"constraint:OnDelete:CASCADE"`
	UserClaims []ApiResourceClaim    `gorm:"constraint:OnDelete:CASCADE"`
	Properties []ApiResourceProperty `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate 在未指定 ID 時產生新的 UUID
func (r *ApiResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ApiResourceSecret 資源密鑰，Value 只保存雜湊後的值
type ApiResourceSecret struct {
	ID            uint      `gorm:"primaryKey"`
	ApiResourceID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type          string    `gorm:"size:250;not null"`
	Value         string    `gorm:"size:4000;not null"`
	Description   string    `gorm:"size:1000"`
	Expiration    *time.Time
	CreatedAt     time.Time
}

type ApiResourceScope struct {
	ID            uint      `gorm:"primaryKey"`
	ApiResourceID uuid.UUID `gorm:"type:uuid;index;not null"`
	Scope         string    `gorm:"size:200;not null"`
}

type ApiResourceClaim struct {
	ID            uint      `gorm:"primaryKey"`
	ApiResourceID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type          string    `gorm:"size:200;not null"`
}

type ApiResourceProperty struct {
	ID            uint      `gorm:"primaryKey"`
	ApiResourceID uuid.UUID `gorm:"type:uuid;index;not null"`
	Key           string    `gorm:"size:250;not null"`
	Value         string    `gorm:"size:2000"`
}
