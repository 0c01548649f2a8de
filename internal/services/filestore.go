package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
)

// allowedExtensions maps every accepted upload extension to its normalized
// form. Keys are lowercase without the leading dot.
var allowedExtensions = map[string]string{
	"jpg":  ".jpg",
	"jpeg": ".jpeg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadStore writes uploaded binaries under a single directory, each keyed by
// a freshly generated UUID so concurrent uploads never collide on a path.
type UploadStore interface {
	// Save persists data as "<fileID><ext>" and returns the filename.
	Save(fileID uuid.UUID, ext string, data []byte) (string, error)
	// PublicURL returns the externally reachable URL for a stored filename.
	PublicURL(filename string) string
	Dir() string
}

type uploadStore struct {
	log     *logger.Logger
	dir     string
	baseURL string
}

func NewUploadStore(log *logger.Logger, dir, baseURL string) (UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &uploadStore{
		log:     log.With("service", "UploadStore"),
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *uploadStore) Save(fileID uuid.UUID, ext string, data []byte) (string, error) {
	normalized, ok := allowedExtensions[strings.TrimPrefix(strings.ToLower(ext), ".")]
	if !ok {
		return "", ErrUnsupportedType
	}
	filename := fileID.String() + normalized
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Error("Failed to write upload", "path", path, "error", err)
		return "", fmt.Errorf("write upload %q: %w", filename, err)
	}
	return filename, nil
}

func (s *uploadStore) PublicURL(filename string) string {
	return s.baseURL + "/uploads/" + filename
}

func (s *uploadStore) Dir() string { return s.dir }

// NormalizedExtension returns the allow-listed extension for an uploaded
// filename, or ok=false when the extension is not accepted.
func NormalizedExtension(filename string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	normalized, ok := allowedExtensions[ext]
	return normalized, ok
}

// AllowedMIMEType reports whether a declared content type is acceptable.
// An empty declaration is tolerated; the extension check still applies.
func AllowedMIMEType(contentType string) bool {
	if contentType == "" {
		return true
	}
	base := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(base, ";"); i != -1 {
		base = strings.TrimSpace(base[:i])
	}
	return allowedMIMETypes[base]
}
