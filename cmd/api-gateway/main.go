package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/repository"
	"github.com/noah-isme/school-office-api/internal/service"
	"github.com/noah-isme/school-office-api/pkg/cache"
	"github.com/noah-isme/school-office-api/pkg/config"
	"github.com/noah-isme/school-office-api/pkg/database"
	"github.com/noah-isme/school-office-api/pkg/jobs"
	"github.com/noah-isme/school-office-api/pkg/logger"
	"github.com/noah-isme/school-office-api/pkg/storage"
)

// @title School Office API
// @version 1.0.0
// @description Announcements, documents, schedules and notifications for school office staff.
// @BasePath /api
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient == nil {
		logr.Warn("redis disabled, logout will not revoke tokens")
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("prepare upload dir: %w", err)
	}

	app := buildServices(cfg, logr, db, redisClient, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := app.bootstrap.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}

	app.dispatcher.Start(context.Background())
	defer app.dispatcher.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
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
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type services struct {
	db            *sqlx.DB
	metrics       *service.MetricsService
	auth          *service.AuthService
	users         *service.UserService
	announcements *service.AnnouncementService
	documents     *service.DocumentService
	schedules     *service.ScheduleService
	notifications *service.NotificationService
	dispatcher    *service.NotificationDispatcher
	bootstrap     *service.BootstrapService
}

func buildServices(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, store *storage.LocalStorage) *services {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	notificationSvc := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, metrics, logr)
	dispatcher := service.NewNotificationDispatcher(notificationSvc, logr, jobs.Config{
		Workers:    cfg.Fanout.Workers,
		BufferSize: cfg.Fanout.QueueSize,
		MaxRetries: cfg.Fanout.MaxRetries,
		RetryDelay: cfg.Fanout.RetryDelay,
	})

	return &services{
		db:      db,
		metrics: metrics,
		auth: service.NewAuthService(userRepo, repository.NewTokenBlacklistRepository(redisClient), logr, service.AuthConfig{
			Secret:     cfg.JWT.Secret,
			Expiration: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		users:         service.NewUserService(userRepo, validate, logr),
		announcements: service.NewAnnouncementService(repository.NewAnnouncementRepository(db), dispatcher, validate, logr),
		documents: service.NewDocumentService(repository.NewDocumentRepository(db), store, dispatcher, metrics, validate, logr, service.DocumentConfig{
			MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		}),
		schedules:     service.NewScheduleService(repository.NewScheduleRepository(db), dispatcher, validate, logr, cfg.Location()),
		notifications: notificationSvc,
		dispatcher:    dispatcher,
		bootstrap: service.NewBootstrapService(userRepo, logr, service.BootstrapConfig{
			Email:    cfg.Bootstrap.AdminEmail,
			Password: models.PlainPassword(cfg.Bootstrap.AdminPassword),
			Name:     cfg.Bootstrap.AdminName,
		}),
	}
}
