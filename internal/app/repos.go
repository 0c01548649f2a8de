package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/repos"
)

type Repos struct {
	Window          repos.WindowRepo
	AnalysisCallLog repos.AnalysisCallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Window:          repos.NewWindowRepo(db, log),
		AnalysisCallLog: repos.NewAnalysisCallLogRepo(db, log),
	}
}
