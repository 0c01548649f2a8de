package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/repos"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

// DefaultMaxUploadBytes caps uploads at 5 MiB.
const DefaultMaxUploadBytes = 5 * 1024 * 1024

// UploadInput is what the transport layer hands to ingestion: raw bytes plus
// the client's declared filename and content type.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IngestionService runs the upload pipeline: validate, fingerprint, duplicate
// check, analyze-or-reuse, persist.
type IngestionService interface {
	Ingest(ctx context.Context, upload UploadInput) (*types.Window, error)
}

type ingestionService struct {
	log      *logger.Logger
	windows  repos.WindowRepo
	store    UploadStore
	analyzer Analyzer
	maxBytes int
}

func NewIngestionService(log *logger.Logger, windows repos.WindowRepo, store UploadStore, analyzer Analyzer, maxBytes int) IngestionService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ingestionService{
		log:      log.With("service", "IngestionService"),
		windows:  windows,
		store:    store,
		analyzer: analyzer,
		maxBytes: maxBytes,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, upload UploadInput) (*types.Window, error) {
	// Validation runs before any side effect: no file write, no record.
	ext, err := s.validate(upload)
	if err != nil {
		return nil, err
	}

	hash := HashBytes(upload.Data)

	existing, err := s.windows.GetByHash(ctx, nil, hash)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}

	var (
		imageURL    string
		description string
		attrs       types.StructuredAttributes
		isDuplicate bool
	)
	if existing != nil {
		// Duplicate: reuse the original's stored image and analysis, skip the
		// vision call entirely.
		imageURL = existing.ImageURL
		description = existing.Description
		attrs = existing.Attributes
		isDuplicate = true
		s.log.Debug("Duplicate upload, reusing prior analysis", "hash", hash)
	} else {
		fileID := uuid.New()
		filename, saveErr := s.store.Save(fileID, ext, upload.Data)
		if saveErr != nil {
			return nil, fmt.Errorf("store upload: %w", saveErr)
		}
		imageURL = s.store.PublicURL(filename)

		// Analyze never fails; the analyzer absorbs every error into its
		// fallback result.
		result := s.analyzer.Analyze(ctx, upload.Data)
		description = result.Description
		attrs = result.Attributes
	}

	window := &types.Window{
		ID:          uuid.New(),
		Hash:        hash,
		IsDuplicate: isDuplicate,
		CreatedAt:   time.Now().Unix(),
		ImageURL:    imageURL,
		Description: description,
		Attributes:  attrs,
	}

	if _, err := s.windows.Create(ctx, nil, window); err != nil {
		s.log.Error("Failed to insert window record", "hash", hash, "error", err)
		return nil, fmt.Errorf("insert window: %w", err)
	}
	return window, nil
}

func (s *ingestionService) validate(upload UploadInput) (string, error) {
	if len(upload.Data) == 0 {
		return "", ErrEmptyUpload
	}
	if len(upload.Data) > s.maxBytes {
		return "", ErrUploadTooLarge
	}
	ext, ok := NormalizedExtension(upload.Filename)
	if !ok {
		return "", ErrUnsupportedType
	}
	if !AllowedMIMEType(upload.ContentType) {
		return "", ErrUnsupportedType
	}
	return ext, nil
}
