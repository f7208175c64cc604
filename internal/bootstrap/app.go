package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ZhiruiFeng/zflow-gateway/internal/auth"
	"github.com/ZhiruiFeng/zflow-gateway/internal/config"
	"github.com/ZhiruiFeng/zflow-gateway/internal/handler"
	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service"
	"github.com/ZhiruiFeng/zflow-gateway/internal/timeline"
	"github.com/ZhiruiFeng/zflow-gateway/internal/zmemory"
)

type App struct {
	Echo   *echo.Echo
	Tokens *auth.Manager
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	// Initialize logging
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	// Token manager over the refresh endpoint. With no AUTH_REFRESH_URL the
	// gateway talks to zmemory unauthenticated.
	refresh := auth.HTTPRefresh(config.DefaultEnvConfig.AUTH_REFRESH_URL, config.DefaultEnvConfig.AUTH_API_KEY)
	a.Tokens = auth.NewManager(refresh, config.DefaultEnvConfig.TOKEN_TTL)

	// Upstream client and dependencies
	client := zmemory.NewClient(config.DefaultEnvConfig.ZMEMORY_BASE_URL, config.DefaultEnvConfig.ZMEMORY_TIMEOUT, a.Tokens)

	taskSvc := service.NewTaskService(client)
	timelineSvc := service.NewTimelineService(timeline.NewAggregator(client, client, client))

	taskHandler := handler.NewTaskHandler(taskSvc)
	timelineHandler := handler.NewTimelineHandler(timelineSvc)
	exportHandler := handler.NewExportHandler(taskSvc, timelineSvc)
	authHandler := handler.NewAuthHandler(a.Tokens)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(taskHandler, timelineHandler, exportHandler, authHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(taskHandler *handler.TaskHandler, timelineHandler *handler.TimelineHandler, exportHandler *handler.ExportHandler, authHandler *handler.AuthHandler) {
	taskGroup := a.Echo.Group("/api/tasks")
	taskGroup.GET("/buckets", taskHandler.BucketsHandler)
	taskGroup.GET("/roots", taskHandler.RootsHandler)
	taskGroup.GET("/:id/subtree", taskHandler.SubtreeHandler)
	taskGroup.GET("/:id/ancestors", taskHandler.AncestorsHandler)
	taskGroup.POST("", taskHandler.CreateHandler)
	taskGroup.PUT("/:id", taskHandler.UpdateHandler)
	taskGroup.DELETE("/:id", taskHandler.DeleteHandler)

	a.Echo.GET("/api/timeline", timelineHandler.DayHandler)
	a.Echo.POST("/api/auth/clear", authHandler.ClearHandler)

	exportGroup := a.Echo.Group("/export")
	exportGroup.GET("/tasks.xlsx", exportHandler.TasksHandler)
	exportGroup.GET("/timeline.xlsx", exportHandler.TimelineHandler)

	a.Echo.GET("/healthz", handler.HealthHandler)
}

func (a *App) Run() error {
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}
