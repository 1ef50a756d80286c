package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sagha-api/api/swagger"
	"github.com/noah-isme/sagha-api/internal/handler"
	"github.com/noah-isme/sagha-api/internal/middleware"
	"github.com/noah-isme/sagha-api/internal/repository"
	"github.com/noah-isme/sagha-api/internal/scheduler"
	"github.com/noah-isme/sagha-api/internal/service"
	"github.com/noah-isme/sagha-api/pkg/cache"
	"github.com/noah-isme/sagha-api/pkg/config"
	"github.com/noah-isme/sagha-api/pkg/database"
	"github.com/noah-isme/sagha-api/pkg/jobs"
	"github.com/noah-isme/sagha-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sagha-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sagha-api/pkg/middleware/requestid"
	"github.com/noah-isme/sagha-api/pkg/storage"
)

// @title SAGHA API
// @version 1.0.0
// @description Academic complementary hours management for colleges.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.Cache.Enabled {
			return err
		}
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	exportDisk, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	audit := service.NewAuditService(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	}, logr)
	audit.Start(ctx)
	defer audit.Stop()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(users, collegeRepo, studentRepo, audit, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if err := authSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		return err
	}

	collegeSvc := service.NewCollegeService(service.CollegeServiceDeps{
		Colleges:  collegeRepo,
		Users:     users,
		Courses:   courseRepo,
		Semesters: semesterRepo,
		Students:  studentRepo,
		Cache:     cacheSvc,
		Audit:     audit,
		Validator: validate,
		Logger:    logr,
	})
	courseSvc := service.NewCourseService(courseRepo, collegeSvc, audit, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, courseRepo, collegeSvc, audit, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, cacheSvc, audit, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, activityRepo, collegeSvc, logr)
	activitySvc := service.NewActivityService(service.ActivityServiceDeps{
		Activities: activityRepo,
		Students:   studentRepo,
		Categories: categoryRepo,
		Colleges:   collegeSvc,
		Store:      store,
		Audit:      audit,
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
		Config: service.ActivityConfig{
			MaxCertificateBytes: cfg.Storage.MaxFileSizeBytes,
			AllowedMIMEs:        cfg.Storage.AllowedMIMEs,
		},
	})
	exportSvc := service.NewExportService(studentSvc, exportDisk,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		metrics, service.ExportConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Exports.Retention}, logr)

	sched := scheduler.New(exportSvc, cfg.Exports.CleanupSpec, logr)
	if err := sched.Start(); err != nil {
		return err
	}

	readiness := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		readiness["redis"] = cacheRepo
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg.APIPrefix, authSvc, handlers{
		auth:      handler.NewAuthHandler(authSvc),
		colleges:  handler.NewCollegeHandler(collegeSvc),
		students:  handler.NewStudentHandler(studentSvc, exportSvc),
		courses:   handler.NewCourseHandler(courseSvc),
		semesters: handler.NewSemesterHandler(semesterSvc),
		category:  handler.NewCategoryHandler(categorySvc),
		activity:  handler.NewActivityHandler(activitySvc),
		ops:       handler.NewMetricsHandler(metrics, readiness),
	})

	if cfg.Storage.Driver == config.StorageDriverLocal && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	if cfg.Driver == config.StorageDriverS3 {
		s3, err := storage.NewS3ObjectStore(ctx, storage.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return s3, nil
	}

	disk, err := storage.NewLocalStorage(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("init local storage: %w", err)
	}
	return storage.NewLocalObjectStore(disk, cfg.PublicBaseURL), nil
}
