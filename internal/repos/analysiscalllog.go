package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

type AnalysisCallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.AnalysisCallLog) (*types.AnalysisCallLog, error)
}

type analysisCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisCallLogRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisCallLogRepo {
	return &analysisCallLogRepo{db: db, log: baseLog.With("repo", "AnalysisCallLogRepo")}
}

func (r *analysisCallLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AnalysisCallLog) (*types.AnalysisCallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}
