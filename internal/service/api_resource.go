package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"identity_admin/internal/domain"
	"identity_admin/internal/models"
	"identity_admin/internal/repository"
)

const apiResourceName = "ApiResource"

// 允許排序的欄位，對應到資料表欄位
var apiResourceSortColumns = map[string]string{
	"name":         "name",
	"displayname":  "display_name",
	"creationtime": "created_at",
}

// ApiResourceService 處理 ApiResource 的查詢與維護
type ApiResourceService struct {
	repo     repository.ApiResourceRepository
	notifier ChangeNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewApiResourceService(repo repository.ApiResourceRepository, notifier ChangeNotifier, logger *zap.Logger) *ApiResourceService {
	return &ApiResourceService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// GetList 分頁查詢資源
func (s *ApiResourceService) GetList(ctx context.Context, input PagingApiResourceListInput) (*PagedResult[ApiResourceOutput], error) {
	orderBy, err := parseSorting(input.Sorting)
	if err != nil {
		return nil, err
	}

	pageIndex, pageSize := normalizePaging(input.PageIndex, input.PageSize)
	resources, total, err := s.repo.List(ctx, repository.ListQuery{
		Filter:  strings.TrimSpace(input.Filter),
		OrderBy: orderBy,
		Offset:  (pageIndex - 1) * pageSize,
		Limit:   pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list api resources: %w", err)
	}

	return &PagedResult[ApiResourceOutput]{
		TotalCount: total,
		Items:      toOutputs(resources),
	}, nil
}

// GetAll 取得所有資源
func (s *ApiResourceService) GetAll(ctx context.Context) ([]ApiResourceOutput, error) {
	resources, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all api resources: %w", err)
	}
	return toOutputs(resources), nil
}

func (s *ApiResourceService) Create(ctx context.Context, input CreateApiResourceInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if err := validateSecret(input); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByName(ctx, name, uuid.Nil)
	if err != nil {
		return fmt.Errorf("check api resource name: %w", err)
	}
	if exists {
		return nameConflict(name, nil)
	}

	resource := &models.ApiResource{
		ID:                                  uuid.New(),
		Name:                                name,
		DisplayName:                         input.DisplayName,
		Description:                         input.Description,
		Enabled:                             boolOrDefault(input.Enabled, true),
		AllowedAccessTokenSigningAlgorithms: input.AllowedAccessTokenSigningAlgorithms,
		ShowInDiscoveryDocument:             boolOrDefault(input.ShowInDiscoveryDocument, true),
		Scopes:                              toScopes(input.Scopes),
		UserClaims:                          toClaims(input.UserClaims),
		Properties:                          toProperties(input.Properties),
	}
	if input.Secret != "" {
		resource.Secrets = []models.ApiResourceSecret{newSecret(input)}
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		// 檢查與寫入之間被其他請求搶先建立同名資源
		if errors.Is(err, repository.ErrDuplicate) {
			return nameConflict(name, err)
		}
		return fmt.Errorf("create api resource: %w", err)
	}

	s.logger.Info("api resource created", zap.String("id", resource.ID.String()), zap.String("name", resource.Name))
	s.publish(ChangeCreated, resource)
	return nil
}

func (s *ApiResourceService) Update(ctx context.Context, input UpdateApiResourceInput) error {
	if input.ID == uuid.Nil {
		return domain.ValidationError{Field: "id", Msg: "must not be empty"}
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if err := validateSecret(input.CreateApiResourceInput); err != nil {
		return err
	}

	existing, err := s.find(ctx, input.ID)
	if err != nil {
		return err
	}

	if name != existing.Name {
		exists, err := s.repo.ExistsByName(ctx, name, existing.ID)
		if err != nil {
			return fmt.Errorf("check api resource name: %w", err)
		}
		if exists {
			return nameConflict(name, nil)
		}
	}

	existing.Name = name
	existing.DisplayName = input.DisplayName
	existing.Description = input.Description
	existing.Enabled = boolOrDefault(input.Enabled, existing.Enabled)
	existing.AllowedAccessTokenSigningAlgorithms = input.AllowedAccessTokenSigningAlgorithms
	existing.ShowInDiscoveryDocument = boolOrDefault(input.ShowInDiscoveryDocument, existing.ShowInDiscoveryDocument)
	existing.Scopes = toScopes(input.Scopes)
	existing.UserClaims = toClaims(input.UserClaims)
	existing.Properties = toProperties(input.Properties)

	replaceSecrets := input.Secret != ""
	if replaceSecrets {
		existing.Secrets = []models.ApiResourceSecret{newSecret(input.CreateApiResourceInput)}
	}

	if err := s.repo.Update(ctx, existing, replaceSecrets); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundError{Resource: apiResourceName, Err: err}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nameConflict(name, err)
		}
		return fmt.Errorf("update api resource: %w", err)
	}

	s.logger.Info("api resource updated", zap.String("id", existing.ID.String()), zap.String("name", existing.Name))
	s.publish(ChangeUpdated, existing)
	return nil
}

func (s *ApiResourceService) Delete(ctx context.Context, input IdInput) error {
	if input.ID == uuid.Nil {
		return domain.ValidationError{Field: "id", Msg: "must not be empty"}
	}

	existing, err := s.find(ctx, input.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundError{Resource: apiResourceName, Err: err}
		}
		return fmt.Errorf("delete api resource: %w", err)
	}

	s.logger.Info("api resource deleted", zap.String("id", existing.ID.String()), zap.String("name", existing.Name))
	s.publish(ChangeDeleted, existing)
	return nil
}

func (s *ApiResourceService) find(ctx context.Context, id uuid.UUID) (*models.ApiResource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFoundError{Resource: apiResourceName, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("find api resource: %w", err)
	}
	return resource, nil
}

func (s *ApiResourceService) publish(changeType string, resource *models.ApiResource) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ChangeEvent{
		Type:      changeType,
		ID:        resource.ID,
		Name:      resource.Name,
		Timestamp: s.now().UTC(),
	})
}

func nameConflict(name string, err error) error {
	return domain.ConflictError{Resource: apiResourceName, Msg: fmt.Sprintf("name %q already exists", name), Err: err}
}

// validateSecret 密鑰描述與到期時間只能隨新的密鑰一起提交
func validateSecret(input CreateApiResourceInput) error {
	if input.Secret != "" {
		return nil
	}
	if input.SecretDescription != "" {
		return domain.ValidationError{Field: "secretDescription", Msg: "requires secret"}
	}
	if input.SecretExpiration != nil {
		return domain.ValidationError{Field: "secretExpiration", Msg: "requires secret"}
	}
	return nil
}

// maxPageIndex 確保 (pageIndex-1)*MaxPageSize 不會溢位
const maxPageIndex = math.MaxInt / MaxPageSize

func normalizePaging(pageIndex, pageSize int) (int, int) {
	if pageIndex < 1 {
		pageIndex = 1
	}
	if pageIndex > maxPageIndex {
		pageIndex = maxPageIndex
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageIndex, pageSize
}

// parseSorting 將 "displayName desc" 轉成 "display_name desc, id asc"，只接受白名單欄位。
// 附加 id 讓排序值相同的資料在分頁間順序固定。
func parseSorting(sorting string) (string, error) {
	fields := strings.Fields(sorting)
	if len(fields) == 0 {
		return "name asc", nil
	}
	if len(fields) > 2 {
		return "", domain.ValidationError{Field: "sorting", Msg: "expected \"<field> [asc|desc]\""}
	}

	column, ok := apiResourceSortColumns[strings.ToLower(fields[0])]
	if !ok {
		return "", domain.ValidationError{Field: "sorting", Msg: fmt.Sprintf("unsupported field %q", fields[0])}
	}

	direction := "asc"
	if len(fields) == 2 {
		direction = strings.ToLower(fields[1])
		if direction != "asc" && direction != "desc" {
			return "", domain.ValidationError{Field: "sorting", Msg: fmt.Sprintf("unsupported direction %q", fields[1])}
		}
	}
	return column + " " + direction + ", id asc", nil
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// distinct 去除空白與重複值，保留第一次出現的順序
func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

func toScopes(scopes []string) []models.ApiResourceScope {
	var result []models.ApiResourceScope
	for _, scope := range distinct(scopes) {
		result = append(result, models.ApiResourceScope{Scope: scope})
	}
	return result
}

func toClaims(claims []string) []models.ApiResourceClaim {
	var result []models.ApiResourceClaim
	for _, claim := range distinct(claims) {
		result = append(result, models.ApiResourceClaim{Type: claim})
	}
	return result
}

func toProperties(properties []ApiResourcePropertyDto) []models.ApiResourceProperty {
	var result []models.ApiResourceProperty
	for _, p := range properties {
		result = append(result, models.ApiResourceProperty{Key: p.Key, Value: p.Value})
	}
	return result
}

func newSecret(input CreateApiResourceInput) models.ApiResourceSecret {
	return models.ApiResourceSecret{
		Type:        models.SharedSecretType,
		Value:       hashSharedSecret(input.Secret),
		Description: input.SecretDescription,
		Expiration:  input.SecretExpiration,
	}
}

func toOutputs(resources []models.ApiResource) []ApiResourceOutput {
	outputs := make([]ApiResourceOutput, 0, len(resources))
	for i := range resources {
		outputs = append(outputs, toOutput(&resources[i]))
	}
	return outputs
}

func toOutput(r *models.ApiResource) ApiResourceOutput {
	output := ApiResourceOutput{
		ID:                                  r.ID,
		Name:                                r.Name,
		DisplayName:                         r.DisplayName,
		Description:                         r.Description,
		Enabled:                             r.Enabled,
		AllowedAccessTokenSigningAlgorithms: r.AllowedAccessTokenSigningAlgorithms,
		ShowInDiscoveryDocument:             r.ShowInDiscoveryDocument,
		Secrets:                             make([]ApiResourceSecretOutput, 0, len(r.Secrets)),
		Scopes:                              make([]string, 0, len(r.Scopes)),
		UserClaims:                          make([]string, 0, len(r.UserClaims)),
		Properties:                          make([]ApiResourcePropertyDto, 0, len(r.Properties)),
		CreationTime:                        r.CreatedAt,
		LastModificationTime:                r.UpdatedAt,
	}
	for _, secret := range r.Secrets {
		output.Secrets = append(output.Secrets, ApiResourceSecretOutput{
			Type:        secret.Type,
			Description: secret.Description,
			Expiration:  secret.Expiration,
		})
	}
	for _, scope := range r.Scopes {
		output.Scopes = append(output.Scopes, scope.Scope)
	}
	for _, claim := range r.UserClaims {
		output.UserClaims = append(output.UserClaims, claim.Type)
	}
	for _, p := range r.Properties {
		output.Properties = append(output.Properties, ApiResourcePropertyDto{Key: p.Key, Value: p.Value})
	}
	return output
}
