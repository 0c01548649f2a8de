package app

import (
	"strings"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/services"
	"github.com/yungbote/windowcatalog-backend/internal/utils"
)

type Config struct {
	Port           string
	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int
	AllowedOrigins []string
	Environment    string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads", log)
	publicBaseURL := utils.GetEnv("PUBLIC_BASE_URL", "http://localhost:"+port, log)
	maxUploadBytes := utils.GetEnvAsInt("MAX_UPLOAD_BYTES", services.DefaultMaxUploadBytes, log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)

	var origins []string
	if raw := utils.GetEnv("ALLOWED_ORIGINS", "", log); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return Config{
		Port:           port,
		UploadDir:      uploadDir,
		PublicBaseURL:  publicBaseURL,
		MaxUploadBytes: maxUploadBytes,
		AllowedOrigins: origins,
		Environment:    environment,
	}
}
