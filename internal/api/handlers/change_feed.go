package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"identity_admin/internal/middleware"
	"identity_admin/internal/service"
)

// ChangeFeedHandler 將 ApiResource 的異動透過 WebSocket 推送給管理介面
type ChangeFeedHandler struct {
	hub      *service.ChangeHub
	upgrader websocket.Upgrader
}

// NewChangeFeedHandler 只允許 allowedOrigins 中的來源建立連線；沒有 Origin 標頭的請求（非瀏覽器）一律允許
func NewChangeFeedHandler(hub *service.ChangeHub, allowedOrigins []string) *ChangeFeedHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &ChangeFeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// Subscribe 升級連線並持續推送異動，直到客戶端離線
func (h *ChangeFeedHandler) Subscribe(c *gin.Context) {
	// Upgrade 失敗時已自行回應錯誤
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.hub.Serve(conn, c.GetString(middleware.ContextUsername))
}
