package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"identity_admin/internal/models"
	"identity_admin/internal/utils"
)

// UserService 是 AuthHandler 依賴的使用者服務
type UserService interface {
	CreateUser(ctx context.Context, username, password string, role models.UserRole) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// AuthHandler 處理與認證相關的請求
type AuthHandler struct {
	userService UserService
	tokens      *utils.TokenManager
}

// NewAuthHandler 創建一個新的 AuthHandler 實例
func NewAuthHandler(userService UserService, tokens *utils.TokenManager) *AuthHandler {
	return &AuthHandler{userService: userService, tokens: tokens}
}

// LoginInput 定義登入請求的結構
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterInput 定義註冊請求的結構，未指定角色時為唯讀使用者
type RegisterInput struct {
	Username string          `json:"username" binding:"required"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"omitempty,oneof=admin viewer"`
}

// Register 由已登入的管理員建立新帳號
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input, false) {
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleViewer
	}

	user, err := h.userService.CreateUser(c.Request.Context(), input.Username, input.Password, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username, "role": user.Role})
}

// Login 處理用戶登入
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input, false) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 生成 JWT token
	token, err := h.tokens.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
