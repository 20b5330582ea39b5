package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"identity_admin/internal/api/handlers"
	"identity_admin/internal/middleware"
	"identity_admin/internal/models"
	"identity_admin/internal/service"
	"identity_admin/internal/utils"
	"identity_admin/pkg/config"
)

// Pinger 用於健康檢查
type Pinger interface {
	Ping(ctx context.Context) error
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, services *service.Services, db Pinger, logger *zap.Logger) {
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(logger),
	)

	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User, tokens)
	apiResourceHandler := handlers.NewApiResourceHandler(services.ApiResource)
	changeFeedHandler := handlers.NewChangeFeedHandler(services.ChangeHub, cfg.CORS.AllowedOrigins)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{
			Error:     "route not found",
			Code:      "not_found",
			RequestID: middleware.GetRequestID(c),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		// 健康檢查，包含資料庫連線
		api.GET("/health", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// 需要驗證的路由
	auth := middleware.AuthMiddleware(tokens)
	adminOnly := middleware.RequireRole(string(models.RoleAdmin))
	api.POST("/auth/register", auth, adminOnly, authHandler.Register)

	identityServer := r.Group("/IdentityServer")
	identityServer.Use(auth)
	{
		apiResources := identityServer.Group("/ApiResource")
		apiResourceHandler.RegisterRoutes(apiResources, adminOnly)
		apiResources.GET("/changes", changeFeedHandler.Subscribe)
	}
}
