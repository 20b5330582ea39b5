package service

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// PagingApiResourceListInput 分頁查詢參數
type PagingApiResourceListInput struct {
	PageIndex int    `json:"pageIndex"`
	PageSize  int    `json:"pageSize"`
	Filter    string `json:"filter"`
	Sorting   string `json:"sorting"` // 例如 "name desc"
}

// PagedResult 分頁結果
type PagedResult[T any] struct {
	TotalCount int64 `json:"totalCount"`
	Items      []T   `json:"items"`
}

type IdInput struct {
	ID uuid.UUID `json:"id"`
}

type ApiResourceSecretOutput struct {
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Expiration  *time.Time `json:"expiration,omitempty"`
}

type ApiResourcePropertyDto struct {
	Key   string `json:"key" binding:"required,max=250"`
	Value string `json:"value" binding:"max=2000"`
}

type ApiResourceOutput struct {
	ID                                  uuid.UUID                 `json:"id"`
	Name                                string                    `json:"name"`
	DisplayName                         string                    `json:"displayName"`
	Description                         string                    `json:"description"`
	Enabled                             bool                      `json:"enabled"`
	AllowedAccessTokenSigningAlgorithms string                    `json:"allowedAccessTokenSigningAlgorithms"`
	ShowInDiscoveryDocument             bool                      `json:"showInDiscoveryDocument"`
	Secrets                             []ApiResourceSecretOutput `json:"secrets"`
	Scopes                              []string                  `json:"scopes"`
	UserClaims                          []string                  `json:"userClaims"`
	Properties                          []ApiResourcePropertyDto  `json:"properties"`
	CreationTime                        time.Time                 `json:"creationTime"`
	LastModificationTime                time.Time                 `json:"lastModificationTime"`
}

// CreateApiResourceInput 新增資源的輸入。Enabled 與 ShowInDiscoveryDocument 未提供時預設為 true。
// SecretDescription 與 SecretExpiration 描述的是這次提交的 Secret，沒有 Secret 時會被拒絕。
type CreateApiResourceInput struct {
	Name                                string                   `json:"name" binding:"required,max=200"`
	DisplayName                         string                   `json:"displayName" binding:"max=200"`
	Description                         string                   `json:"description" binding:"max=1000"`
	Enabled                             *bool                    `json:"enabled"`
	AllowedAccessTokenSigningAlgorithms string                   `json:"allowedAccessTokenSigningAlgorithms" binding:"max=100"`
	ShowInDiscoveryDocument             *bool                    `json:"showInDiscoveryDocument"`
	Secret                              string                   `json:"secret"`
	SecretDescription                   string                   `json:"secretDescription" binding:"max=1000"`
	SecretExpiration                    *time.Time               `json:"secretExpiration"`
	Scopes                              []string                 `json:"scopes"`
	UserClaims                          []string                 `json:"userClaims"`
	Properties                          []ApiResourcePropertyDto `json:"properties" binding:"dive"`
}

// UpdateApiResourceInput 更新資源的輸入。Secret 為空時保留原有密鑰。
type UpdateApiResourceInput struct {
	ID uuid.UUID `json:"id"`
	CreateApiResourceInput
}
