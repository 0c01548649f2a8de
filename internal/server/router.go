package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/windowcatalog-backend/internal/http/handlers"
	"github.com/yungbote/windowcatalog-backend/internal/http/middleware"
	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/observability"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string
	UploadDir      string

	HealthHandler *handlers.HealthHandler
	WindowHandler *handlers.WindowHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if observability.Enabled() {
		router.Use(otelgin.Middleware("windowcatalog"))
	}
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", cfg.HealthHandler.HealthCheck)

	// Stored images, served straight from the upload directory. Gin's static
	// handler rejects path traversal out of the directory.
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")
	{
		api.POST("/windows", cfg.WindowHandler.Upload)
		api.GET("/windows", cfg.WindowHandler.List)
		api.GET("/windows/:id", cfg.WindowHandler.Get)
		api.GET("/windows/:id/duplicates", cfg.WindowHandler.Duplicates)
	}

	return router
}
