package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storerate/internal/api"
	"storerate/internal/config"
	"storerate/internal/entity"
	"storerate/internal/metrics"
	"storerate/internal/model"
	"storerate/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// 本地开发时从 .env 读取环境变量，文件不存在则忽略
	_ = godotenv.Load()

	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if repo != nil {
		if err := model.SeedAdminUser(context.Background(), repo, cfg); err != nil {
			logrus.WithError(err).Warn("failed to seed admin account")
		}
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	if err := api.RegisterValidators(); err != nil {
		logrus.WithError(err).Error("failed to register validators")
		return
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(metrics.Middleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authLimiter := api.RateLimitMiddleware(cfg.AuthRateLimitPerSecond, cfg.AuthRateLimitBurst)
	authGroup.POST("/signup", authLimiter, httpHandler.Signup)
	authGroup.POST("/login", authLimiter, httpHandler.Login)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)
	authGroup.POST("/logout", httpHandler.AuthMiddleware(), httpHandler.Logout)
	authGroup.POST("/change-password", httpHandler.AuthMiddleware(), httpHandler.ChangePassword)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())

	adminGroup := protected.Group("/admin")
	adminGroup.Use(httpHandler.RequireRole(entity.RoleAdmin))
	adminGroup.GET("/stats", httpHandler.AdminStats)
	adminGroup.GET("/users", httpHandler.AdminListUsers)
	adminGroup.POST("/users", httpHandler.AdminCreateUser)
	adminGroup.GET("/store-owners", httpHandler.AdminListStoreOwners)
	adminGroup.GET("/stores", httpHandler.AdminListStores)
	adminGroup.POST("/stores", httpHandler.AdminCreateStore)
	adminGroup.POST("/stores/:id/photo", httpHandler.AdminUploadStorePhoto)

	protected.GET("/stores", httpHandler.RequireRole(entity.RoleUser), httpHandler.ListStores)
	protected.POST("/ratings", httpHandler.RequireRole(entity.RoleUser), httpHandler.SubmitRating)
	protected.GET("/owner/dashboard", httpHandler.RequireRole(entity.RoleStoreOwner), httpHandler.OwnerDashboard)

	// 本地存储时直接用 gin 静态路由对外提供照片
	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  300 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件，为每个请求生成 request_id
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.String(),
			"size":       c.Writer.Size(),
			"client_ip":  c.ClientIP(),
		}).Info("http_request")
	}
}
