package app

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/windowcatalog-backend/internal/http/handlers"
	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/server"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Window *httpH.WindowHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Window: httpH.NewWindowHandler(log, services.Ingestion, services.Catalog),
	}
}

func wireRouter(log *logger.Logger, cfg Config, services Services, handlers Handlers) *gin.Engine {
	// Serve stored images from wherever the upload store actually writes.
	return server.NewRouter(server.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      services.Uploads.Dir(),
		HealthHandler:  handlers.Health,
		WindowHandler:  handlers.Window,
	})
}
