package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/civista/nirman/internal/config"
	"github.com/civista/nirman/internal/middleware"
	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/handler"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nirman works service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Database migration failed", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg.Redis)
	}

	var minioClient *minio.Client
	if cfg.MinIO.Enabled && cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("MinIO unavailable, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, zapLogger, repos, rdb, minioClient, cfg.MinIO.Bucket)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
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

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.File{},
		&entity.Estimate{},
		&entity.EstimateItem{},
		&entity.FileAsset{},
		&entity.FileAttachment{},
		&entity.MovementLog{},
		&entity.Project{},
		&entity.ProjectAsset{},
	); err != nil {
		return err
	}

	// Constraints AutoMigrate can't express.
	ddl := []string{
		`ALTER TABLE files DROP CONSTRAINT IF EXISTS files_status_check`,
		`ALTER TABLE files ADD CONSTRAINT files_status_check CHECK (status IN ('PENDING', 'RETURNED', 'APPROVED', 'REJECTED'))`,
		`ALTER TABLE file_movement_logs DROP CONSTRAINT IF EXISTS file_movement_logs_action_check`,
		`ALTER TABLE file_movement_logs ADD CONSTRAINT file_movement_logs_action_check CHECK (action IN ('FORWARD', 'RETURN', 'APPROVE', 'REJECT'))`,
		`CREATE INDEX IF NOT EXISTS idx_files_holder_role_status ON files(current_holder_role, status)`,
		`CREATE INDEX IF NOT EXISTS idx_estimates_file_active ON estimates(file_id) WHERE is_active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_estimates_file_version ON estimates(file_id, version)`,
		`CREATE INDEX IF NOT EXISTS idx_movement_logs_file_created ON file_movement_logs(file_id, created_at)`,
	}
	for _, sql := range ddl {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("migration %q: %w", sql, err)
		}
	}
	return nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		files := v1.Group("/files")
		{
			files.POST("", h.File.Create)
			files.GET("", h.File.List)
			files.GET("/:id", h.File.Get)
			files.PUT("/:id", h.File.Update)
			files.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.File.Delete)

			files.PUT("/:id/estimate", h.Estimate.Save)
			files.GET("/:id/estimate", h.Estimate.Active)
			files.GET("/:id/estimate/versions", h.Estimate.Versions)
			files.GET("/:id/estimate/export", h.Export.EstimateAbstract)

			files.PUT("/:id/assets", h.Asset.Replace)
			files.GET("/:id/assets", h.Asset.List)

			files.POST("/:id/attachments", h.Attachment.Upload)
			files.GET("/:id/attachments", h.Attachment.List)
			files.GET("/:id/attachments/:attachmentId/download", h.Attachment.Download)

			files.POST("/:id/forward", h.Workflow.Forward)
			files.POST("/:id/return", h.Workflow.Return)
			files.POST("/:id/approve", h.Workflow.Approve)
			files.POST("/:id/reject", h.Workflow.Reject)

			files.GET("/:id/movements", h.File.Movements)
			files.GET("/:id/movements/export", h.Export.MovementRegister)
		}

		projects := v1.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.GET("/:id", h.Project.Get)
		}

		v1.GET("/dashboard/inbox", h.Dashboard.InboxCounts)

		// SSE clients pass the JWT as ?token= since EventSource can't set headers.
		v1.GET("/sse/events", h.SSE.Stream)
	}
}
