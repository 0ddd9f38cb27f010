package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brightmart/inventory/internal/config"
	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/handler"
	"github.com/brightmart/inventory/internal/middleware"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting inventory service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// redis 仅用于认证接口限流，可不配置
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, falling back to in-memory rate limiting", zap.Error(err))
			redisClient = nil
		}
	}

	// minio 存签收照片，可不配置
	var minioClient *minio.Client
	if cfg.MinIO.Enabled() {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Fatal("Failed to init object storage", zap.Error(err))
		}
	}

	// 依赖装配
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, cfg, minioClient, zapLogger)
	handlers := handler.NewHandlers(services, zapLogger)

	// 幂等创建管理员账号
	if err := services.Auth.BootstrapAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
		zapLogger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "inventory"})
	})

	// 认证（限流）
	auth := router.Group("/api/auth")
	auth.Use(middleware.RateLimit("10-M", redisClient, zapLogger))
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.JWTAuth(services.Auth))
	{
		api.GET("/auth/me", handlers.Auth.Me)

		// 商品
		products := api.Group("/products")
		{
			products.GET("", handlers.Product.List)
			products.POST("", handlers.Product.Create)
			products.GET("/categories/list", handlers.Product.Categories)
			products.GET("/low-stock", handlers.Product.LowStock)
			products.GET("/out-of-stock", handlers.Product.OutOfStock)
			products.GET("/expiring", handlers.Product.Expiring)
			products.GET("/export", handlers.Product.Export)
			products.GET("/sku/:sku", handlers.Product.GetBySKU)
			products.GET("/barcode/:barcode", handlers.Product.GetByBarcode)
			products.GET("/:id", handlers.Product.Get)
			products.PUT("/:id", handlers.Product.Update)
			products.DELETE("/:id", handlers.Product.Delete)
			products.PATCH("/:id/stock", handlers.Product.AdjustStock)
		}

		// 供应商
		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", handlers.Supplier.List)
			suppliers.POST("", handlers.Supplier.Create)
			suppliers.GET("/:id", handlers.Supplier.Get)
			suppliers.PUT("/:id", handlers.Supplier.Update)
			suppliers.DELETE("/:id", handlers.Supplier.Delete)
			suppliers.GET("/:id/products", handlers.Supplier.ListProducts)
			suppliers.POST("/:id/products", handlers.Supplier.LinkProduct)
		}

		// 库存台账
		inventory := api.Group("/inventory")
		{
			inventory.GET("/transactions", handlers.Inventory.ListTransactions)
			inventory.POST("/adjust", handlers.Inventory.Adjust)
		}

		// 看板
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/metrics", handlers.Dashboard.Metrics)
			dashboard.GET("/low-stock", handlers.Dashboard.LowStock)
		}

		// 采购订单
		pos := api.Group("/purchase-orders")
		{
			pos.GET("", handlers.Purchase.List)
			pos.POST("", handlers.Purchase.Create)
			pos.GET("/summary/orders", handlers.Purchase.Summary)
			pos.GET("/summary/deliveries", handlers.Purchase.DeliveryMetrics)
			pos.GET("/reorder-suggestions", handlers.Purchase.ReorderSuggestions)
			pos.GET("/:id", handlers.Purchase.Get)
			pos.PUT("/:id", handlers.Purchase.Update)
			pos.POST("/:id/approve", handlers.Purchase.Approve)
			pos.POST("/:id/cancel", handlers.Purchase.Cancel)
			pos.POST("/:id/receive", handlers.Purchase.Receive)
			pos.GET("/:id/tracking", handlers.Purchase.GetTracking)
			pos.PUT("/:id/tracking", handlers.Purchase.UpdateTracking)
			pos.POST("/:id/tracking/photo", handlers.Purchase.UploadPhoto)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}
