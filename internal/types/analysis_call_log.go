package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisCallLog is the audit row written for every vision call, successful
// or not. Failed calls never surface to the uploader, so this table is the
// only durable trace of them.
type AnalysisCallLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Model      string         `gorm:"column:model;not null" json:"model"`
	Prompt     string         `gorm:"column:prompt;type:text" json:"prompt"`
	Response   string         `gorm:"column:response;type:text" json:"response"`
	Success    bool           `gorm:"column:success;not null" json:"success"`
	Error      string         `gorm:"column:error;type:text" json:"error"`
	DurationMS int64          `gorm:"column:duration_ms" json:"duration_ms"`
	Usage      datatypes.JSON `gorm:"type:jsonb;column:usage" json:"usage"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AnalysisCallLog) TableName() string { return "analysis_call_log" }
