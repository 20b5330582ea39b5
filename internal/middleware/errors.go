package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"identity_admin/internal/domain"
)

// ErrorResponse 統一的錯誤回應格式
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler 在處理器執行完後，把 c.Errors 中最後一個錯誤轉成 HTTP 回應。
// 處理器只需要呼叫 c.Error(err) 並返回。
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code, message := http.StatusInternalServerError, "internal_error", "internal server error"
		switch {
		case domain.IsValidation(err):
			status, code, message = http.StatusBadRequest, "validation_error", err.Error()
		case domain.IsNotFound(err):
			status, code, message = http.StatusNotFound, "not_found", err.Error()
		case domain.IsConflict(err):
			status, code, message = http.StatusConflict, "conflict", err.Error()
		case domain.IsUnauthorized(err):
			status, code, message = http.StatusUnauthorized, "unauthorized", err.Error()
		default:
			logger.Error("unhandled request error",
				zap.String("request_id", GetRequestID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		c.JSON(status, ErrorResponse{
			Error:     message,
			Code:      code,
			RequestID: GetRequestID(c),
		})
	}
}
