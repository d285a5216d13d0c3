package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-office-api/api/swagger"
	"github.com/noah-isme/school-office-api/internal/handler"
	"github.com/noah-isme/school-office-api/internal/middleware"
	"github.com/noah-isme/school-office-api/pkg/config"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-office-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-office-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-office-api/pkg/response"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *services) *gin.Engine {
	production := cfg.Env == config.EnvProduction

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Recovery(logr))
	r.Use(middleware.SecurityHeaders(production))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	authHandler := handler.NewAuthHandler(app.auth)
	userHandler := handler.NewUserHandler(app.users)
	announcementHandler := handler.NewAnnouncementHandler(app.announcements)
	documentHandler := handler.NewDocumentHandler(app.documents)
	scheduleHandler := handler.NewScheduleHandler(app.schedules)
	notificationHandler := handler.NewNotificationHandler(app.notifications)
	metricsHandler := handler.NewMetricsHandler(app.metrics, app.db, cfg.Version)

	r.GET("/", metricsHandler.Index(cfg.APIPrefix))
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if !production {
		docs := ginSwagger.WrapHandler(swaggerFiles.Handler)
		r.GET("/docs/*any", func(c *gin.Context) {
			// the bundled UI relies on inline scripts
			c.Writer.Header().Del("Content-Security-Policy")
			docs(c)
		})
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", metricsHandler.Health)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.Authenticate(app.auth))
	adminOnly := middleware.RequireAdmin()

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	users := secured.Group("/users")
	users.GET("", adminOnly, userHandler.List)
	users.POST("", adminOnly, userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PUT("/:id/password", userHandler.ChangePassword)
	users.DELETE("/:id", adminOnly, userHandler.Deactivate)

	announcements := secured.Group("/announcements")
	announcements.GET("", announcementHandler.List)
	announcements.GET("/recent", announcementHandler.Recent)
	announcements.GET("/:id", announcementHandler.Get)
	announcements.POST("", announcementHandler.Create)
	announcements.PUT("/:id", announcementHandler.Update)
	announcements.DELETE("/:id", announcementHandler.Delete)

	documents := secured.Group("/documents")
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.Get)
	documents.GET("/:id/download", documentHandler.Download)
	documents.POST("", middleware.BodyLimit(cfg.Uploads.MaxFileSizeBytes), documentHandler.Upload)
	documents.PUT("/:id", documentHandler.Update)
	documents.DELETE("/:id", documentHandler.Delete)

	schedules := secured.Group("/schedules")
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/today", scheduleHandler.Today)
	schedules.GET("/export", scheduleHandler.Export)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.POST("", scheduleHandler.Create)
	schedules.PUT("/:id", scheduleHandler.Update)
	schedules.DELETE("/:id", scheduleHandler.Delete)

	notifications := secured.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)

	secured.GET("/system/metrics", adminOnly, metricsHandler.System)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	return r
}
