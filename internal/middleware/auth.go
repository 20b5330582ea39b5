package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"identity_admin/internal/utils"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

// AuthMiddleware 是一個 Gin 中間件，用於驗證請求的 JWT token。
// WebSocket 客戶端無法設定標頭，因此也接受 access_token 查詢參數。
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// 檢查 Authorization 頭的格式
			parts := strings.SplitN(authHeader, " ", 2)
			if !(len(parts) == 2 && parts[0] == "Bearer") {
				abortUnauthorized(c, "Authorization header format must be Bearer {token}")
				return
			}
			token = parts[1]
		}

		if token == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// 將用戶信息設置到上下文中
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:     message,
		Code:      "unauthorized",
		RequestID: GetRequestID(c),
	})
}

// RequireRole 必須放在 AuthMiddleware 之後，角色不符時回應 403
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error:     "insufficient role",
			Code:      "forbidden",
			RequestID: GetRequestID(c),
		})
	}
}
