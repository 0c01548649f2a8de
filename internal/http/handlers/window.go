package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/windowcatalog-backend/internal/http/response"
	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/services"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

type WindowHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
	catalog   services.CatalogService
}

func NewWindowHandler(log *logger.Logger, ingestion services.IngestionService, catalog services.CatalogService) *WindowHandler {
	return &WindowHandler{
		log:       log.With("handler", "WindowHandler"),
		ingestion: ingestion,
		catalog:   catalog,
	}
}

// POST /api/windows (multipart/form-data, field "file")
func (h *WindowHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	record, err := h.ingestion.Ingest(c.Request.Context(), services.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.RespondOK(c, record)
}

// GET /api/windows
func (h *WindowHandler) List(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_page", services.ErrInvalidPage)
		return
	}
	limit, err := intQuery(c, "limit", services.DefaultPageLimit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", services.ErrInvalidLimit)
		return
	}
	params := services.ListParams{
		Page:    page,
		Limit:   limit,
		Filters: map[string]string{},
	}

	for _, field := range types.AttributeFields {
		if v := strings.TrimSpace(c.Query(field)); v != "" {
			params.Filters[field] = v
		}
	}

	if raw := strings.TrimSpace(c.Query("isDuplicate")); raw != "" {
		parsed, parseErr := strconv.ParseBool(raw)
		if parseErr == nil {
			params.IsDuplicate = &parsed
		}
	}
	params.Search = c.Query("search")

	result, err := h.catalog.List(c.Request.Context(), params)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/windows/:id
func (h *WindowHandler) Get(c *gin.Context) {
	record, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.RespondOK(c, record)
}

// GET /api/windows/:id/duplicates
func (h *WindowHandler) Duplicates(c *gin.Context) {
	records, err := h.catalog.Duplicates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.RespondOK(c, records)
}

func (h *WindowHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyUpload):
		response.RespondError(c, http.StatusBadRequest, "empty_upload", err)
	case errors.Is(err, services.ErrUploadTooLarge):
		response.RespondError(c, http.StatusBadRequest, "upload_too_large", err)
	case errors.Is(err, services.ErrUnsupportedType):
		response.RespondError(c, http.StatusBadRequest, "unsupported_type", err)
	case errors.Is(err, services.ErrInvalidID):
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
	case errors.Is(err, services.ErrInvalidPage):
		response.RespondError(c, http.StatusBadRequest, "invalid_page", err)
	case errors.Is(err, services.ErrInvalidLimit):
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
	case errors.Is(err, services.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	default:
		// Internal details (connection strings, driver errors) stay out of
		// the response body.
		h.log.Error("Request failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
	}
}

func intQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(raw)
}
