package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity_admin/internal/domain"
	"identity_admin/internal/service"
)

// ApiResourceService 是 ApiResourceHandler 依賴的應用服務
type ApiResourceService interface {
	GetList(ctx context.Context, input service.PagingApiResourceListInput) (*service.PagedResult[service.ApiResourceOutput], error)
	GetAll(ctx context.Context) ([]service.ApiResourceOutput, error)
	Create(ctx context.Context, input service.CreateApiResourceInput) error
	Delete(ctx context.Context, input service.IdInput) error
	Update(ctx context.Context, input service.UpdateApiResourceInput) error
}

// ApiResourceHandler 將 ApiResource 路由轉交給應用服務，本身不含任何業務邏輯。
// 服務回傳的錯誤原封不動交給 ErrorHandler 中間件處理。
type ApiResourceHandler struct {
	apiResourceService ApiResourceService
}

// NewApiResourceHandler 創建一個新的 ApiResourceHandler 實例
func NewApiResourceHandler(apiResourceService ApiResourceService) *ApiResourceHandler {
	return &ApiResourceHandler{apiResourceService: apiResourceService}
}

// RegisterRoutes 在 rg 下註冊 page、all、create、delete、update 五個路由。
// manage 只套用在 create、delete、update 上。
func (h *ApiResourceHandler) RegisterRoutes(rg *gin.RouterGroup, manage ...gin.HandlerFunc) {
	rg.POST("/page", h.GetList) // 分頁獲取 ApiResource
	rg.POST("/all", h.GetAll)   // 獲取全部 ApiResource

	write := rg.Group("", manage...)
	write.POST("/create", h.Create) // 新增 ApiResource
	write.POST("/delete", h.Delete) // 刪除 ApiResource
	write.POST("/update", h.Update) // 更新 ApiResource
}

func (h *ApiResourceHandler) GetList(c *gin.Context) {
	var input service.PagingApiResourceListInput
	if !bindJSON(c, &input, true) {
		return
	}

	result, err := h.apiResourceService.GetList(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ApiResourceHandler) GetAll(c *gin.Context) {
	result, err := h.apiResourceService.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ApiResourceHandler) Create(c *gin.Context) {
	var input service.CreateApiResourceInput
	if !bindJSON(c, &input, false) {
		return
	}

	if err := h.apiResourceService.Create(c.Request.Context(), input); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *ApiResourceHandler) Delete(c *gin.Context) {
	var input service.IdInput
	if !bindJSON(c, &input, false) {
		return
	}

	if err := h.apiResourceService.Delete(c.Request.Context(), input); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *ApiResourceHandler) Update(c *gin.Context) {
	var input service.UpdateApiResourceInput
	if !bindJSON(c, &input, false) {
		return
	}

	if err := h.apiResourceService.Update(c.Request.Context(), input); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}

// bindJSON 解析請求體；allowEmpty 為 true 時空的請求體視為零值輸入
func bindJSON(c *gin.Context, dst interface{}, allowEmpty bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	_ = c.Error(domain.ValidationError{Msg: "invalid request body: " + err.Error(), Err: err})
	return false
}
