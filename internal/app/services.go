package app

import (
	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/services"
)

type Services struct {
	Vision    services.VisionClient
	Analyzer  services.Analyzer
	Uploads   services.UploadStore
	Ingestion services.IngestionService
	Catalog   services.CatalogService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	vision := services.NewVisionClient(log)
	analyzer := services.NewAnalyzer(log, vision, reposet.AnalysisCallLog)

	uploads, err := services.NewUploadStore(log, cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return Services{}, err
	}

	ingestion := services.NewIngestionService(log, reposet.Window, uploads, analyzer, cfg.MaxUploadBytes)
	catalog := services.NewCatalogService(log, reposet.Window)

	return Services{
		Vision:    vision,
		Analyzer:  analyzer,
		Uploads:   uploads,
		Ingestion: ingestion,
		Catalog:   catalog,
	}, nil
}
