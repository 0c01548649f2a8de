package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/repos"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
	maxSearchLen     = 100
)

// ListParams carries raw listing input. Filters is keyed by attribute name
// (daytime, location, type, material, panes, covering, openState) and holds
// unvalidated client values.
type ListParams struct {
	Page        int
	Limit       int
	Filters     map[string]string
	IsDuplicate *bool
	Search      string
}

// PagedWindows is one page of catalog results plus pagination metadata.
type PagedWindows struct {
	Data       []*types.Window `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int64           `json:"totalPages"`
}

// CatalogService is the read side of the catalog: filtered paginated listing,
// single-record fetch, and duplicate lookup.
type CatalogService interface {
	List(ctx context.Context, params ListParams) (*PagedWindows, error)
	Get(ctx context.Context, id string) (*types.Window, error)
	Duplicates(ctx context.Context, id string) ([]*types.Window, error)
}

type catalogService struct {
	log     *logger.Logger
	windows repos.WindowRepo
}

func NewCatalogService(log *logger.Logger, windows repos.WindowRepo) CatalogService {
	return &catalogService{
		log:     log.With("service", "CatalogService"),
		windows: windows,
	}
}

func (s *catalogService) List(ctx context.Context, params ListParams) (*PagedWindows, error) {
	// Out-of-range pagination is rejected, not clamped, mirroring validation
	// at the original API boundary.
	if params.Page < 1 {
		return nil, ErrInvalidPage
	}
	if params.Limit < 1 || params.Limit > MaxPageLimit {
		return nil, ErrInvalidLimit
	}

	query := repos.WindowQuery{
		Attributes:  map[string]string{},
		IsDuplicate: params.IsDuplicate,
		Search:      sanitizeSearch(params.Search),
		Offset:      (params.Page - 1) * params.Limit,
		Limit:       params.Limit,
	}

	// A filter value outside its enumerated domain is silently dropped: it
	// neither narrows results nor errors, and it can never reach the query
	// builder as raw input.
	for field, value := range params.Filters {
		if value == "" {
			continue
		}
		column, known := types.AttributeColumns[field]
		if !known || !types.InAttributeDomain(field, value) {
			s.log.Debug("Ignoring out-of-domain filter", "field", field, "value", value)
			continue
		}
		query.Attributes[column] = value
	}

	records, total, err := s.windows.List(ctx, nil, query)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	totalPages := (total + int64(params.Limit) - 1) / int64(params.Limit)
	if totalPages < 1 {
		totalPages = 1
	}

	return &PagedWindows{
		Data:       records,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*types.Window, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	record, err := s.windows.GetByID(ctx, nil, parsed)
	if err != nil {
		return nil, fmt.Errorf("get window: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *catalogService) Duplicates(ctx context.Context, id string) ([]*types.Window, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	others, err := s.windows.ListByHashExcluding(ctx, nil, record.Hash, record.ID)
	if err != nil {
		return nil, fmt.Errorf("list duplicates: %w", err)
	}
	return others, nil
}

// sanitizeSearch reduces a raw search term to something safe to embed in a
// LIKE pattern: word characters, whitespace, and hyphens survive, everything
// else is stripped, the result is length-capped, lowercased, and the LIKE
// metacharacters that remain are escaped.
func sanitizeSearch(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if runes := []rune(cleaned); len(runes) > maxSearchLen {
		cleaned = string(runes[:maxSearchLen])
	}
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.ReplaceAll(cleaned, `\`, `\\`)
	cleaned = strings.ReplaceAll(cleaned, "%", `\%`)
	cleaned = strings.ReplaceAll(cleaned, "_", `\_`)
	return cleaned
}
