package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/windowcatalog-backend/internal/http/handlers"
	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/repos"
	"github.com/yungbote/windowcatalog-backend/internal/server"
	"github.com/yungbote/windowcatalog-backend/internal/services"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

var handlerDBCounter int

type testEnv struct {
	router *gin.Engine
	repo   repos.WindowRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// No credential: every analysis resolves to the fallback result.
	t.Setenv("OPENAI_API_KEY", "")

	handlerDBCounter++
	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", handlerDBCounter)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.Window{}, &types.AnalysisCallLog{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	windowRepo := repos.NewWindowRepo(gdb, log)
	callLogRepo := repos.NewAnalysisCallLogRepo(gdb, log)

	uploadDir := t.TempDir()
	store, err := services.NewUploadStore(log, uploadDir, "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	vision := services.NewVisionClient(log)
	analyzer := services.NewAnalyzer(log, vision, callLogRepo)
	ingestion := services.NewIngestionService(log, windowRepo, store, analyzer, services.DefaultMaxUploadBytes)
	catalog := services.NewCatalogService(log, windowRepo)

	router := server.NewRouter(server.RouterConfig{
		Log:           log,
		UploadDir:     store.Dir(),
		HealthHandler: handlers.NewHealthHandler(),
		WindowHandler: handlers.NewWindowHandler(log, ingestion, catalog),
	})

	return &testEnv{router: router, repo: windowRepo}
}

func (e *testEnv) uploadFile(t *testing.T, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	fw, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/windows", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeWindow(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeWindow(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUploadEmptyFileRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.uploadFile(t, "empty.jpg", "image/jpeg", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadOversizeFileRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.uploadFile(t, "big.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 6*1024*1024))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadUnsupportedExtensionRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.uploadFile(t, "malware.exe", "", []byte("binarystuff"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadWithoutCredentialUsesFallback(t *testing.T) {
	env := newTestEnv(t)
	rec := env.uploadFile(t, "photo.jpg", "image/jpeg", []byte("someimagedata"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeWindow(t, rec)
	if body["description"] != "Window detected - analysis unavailable" {
		t.Fatalf("expected fallback description, got %v", body["description"])
	}
	if body["isDuplicate"] != false {
		t.Fatalf("first upload must not be a duplicate")
	}
	structured, ok := body["structured_data"].(map[string]any)
	if !ok {
		t.Fatalf("missing structured_data: %s", rec.Body.String())
	}
	for field, value := range structured {
		if value != "unknown" {
			t.Fatalf("expected %s=unknown, got %v", field, value)
		}
	}
}

func TestUploadDuplicateFlow(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("identical image bytes")

	first := decodeWindow(t, env.uploadFile(t, "a.jpg", "image/jpeg", data))
	secondRec := env.uploadFile(t, "b.jpg", "image/jpeg", data)
	if secondRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", secondRec.Code)
	}
	second := decodeWindow(t, secondRec)

	if second["isDuplicate"] != true {
		t.Fatalf("second identical upload must be flagged duplicate")
	}
	if second["imageUrl"] != first["imageUrl"] {
		t.Fatalf("duplicate must reuse the stored image")
	}
	if second["id"] == first["id"] {
		t.Fatalf("records keep distinct ids")
	}
}

func TestListPaginationOverAPI(t *testing.T) {
	env := newTestEnv(t)
	for i := int64(1); i <= 25; i++ {
		w := &types.Window{
			ID:          uuid.New(),
			Seq:         i,
			Hash:        fmt.Sprintf("%064d", i),
			CreatedAt:   1000 + i,
			ImageURL:    "http://localhost:8080/uploads/x.jpg",
			Description: fmt.Sprintf("seeded window %d", i),
			Attributes:  types.UnknownAttributes(),
		}
		if _, err := env.repo.Create(context.Background(), nil, w); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := env.get(t, "/api/windows?limit=12&page=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeWindow(t, rec)
	if body["total"].(float64) != 25 || body["totalPages"].(float64) != 3 {
		t.Fatalf("unexpected totals: %s", rec.Body.String())
	}
	data := body["data"].([]any)
	if len(data) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(data))
	}
	newest := data[0].(map[string]any)
	if newest["createdAt"].(float64) != 1025 {
		t.Fatalf("expected newest first, got createdAt=%v", newest["createdAt"])
	}
}

func TestListRejectsBadPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/windows?page=0",
		"/api/windows?limit=0",
		"/api/windows?limit=101",
		"/api/windows?page=abc",
	} {
		rec := env.get(t, path)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestGetMalformedIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/api/windows/not-a-valid-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id must be 400, got %d", rec.Code)
	}
}

func TestGetAbsentIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/api/windows/"+uuid.New().String())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("absent id must be 404, got %d", rec.Code)
	}
}

func TestDuplicatesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("shared content")
	first := decodeWindow(t, env.uploadFile(t, "a.jpg", "image/jpeg", data))
	_ = env.uploadFile(t, "b.jpg", "image/jpeg", data)

	rec := env.get(t, "/api/windows/"+first["id"].(string)+"/duplicates")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var others []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &others); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(others) != 1 {
		t.Fatalf("expected one other record, got %d", len(others))
	}
	if others[0]["id"] == first["id"] {
		t.Fatalf("duplicates listing must exclude the record itself")
	}

	if rec := env.get(t, "/api/windows/"+uuid.New().String()+"/duplicates"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id must be 404, got %d", rec.Code)
	}
}

var errStoreDown = errors.New("pq: connection refused")

// failingWindowRepo models a storage layer that is down: every operation
// surfaces a driver-level error.
type failingWindowRepo struct{}

func (failingWindowRepo) Create(ctx context.Context, tx *gorm.DB, window *types.Window) (*types.Window, error) {
	return nil, errStoreDown
}

func (failingWindowRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Window, error) {
	return nil, errStoreDown
}

func (failingWindowRepo) GetByHash(ctx context.Context, tx *gorm.DB, hash string) (*types.Window, error) {
	return nil, errStoreDown
}

func (failingWindowRepo) ListByHashExcluding(ctx context.Context, tx *gorm.DB, hash string, excludeID uuid.UUID) ([]*types.Window, error) {
	return nil, errStoreDown
}

func (failingWindowRepo) List(ctx context.Context, tx *gorm.DB, q repos.WindowQuery) ([]*types.Window, int64, error) {
	return nil, 0, errStoreDown
}

func newFailingStoreEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("OPENAI_API_KEY", "")

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	repo := failingWindowRepo{}
	store, err := services.NewUploadStore(log, t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}
	vision := services.NewVisionClient(log)
	analyzer := services.NewAnalyzer(log, vision, nil)
	ingestion := services.NewIngestionService(log, repo, store, analyzer, services.DefaultMaxUploadBytes)
	catalog := services.NewCatalogService(log, repo)

	router := server.NewRouter(server.RouterConfig{
		Log:           log,
		UploadDir:     store.Dir(),
		HealthHandler: handlers.NewHealthHandler(),
		WindowHandler: handlers.NewWindowHandler(log, ingestion, catalog),
	})
	return &testEnv{router: router, repo: repo}
}

func assertOpaqueInternalError(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("unexpected message: %q", envelope.Error.Message)
	}
	if envelope.Error.Code != "internal_error" {
		t.Fatalf("unexpected code: %q", envelope.Error.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("driver error leaked into response: %s", rec.Body.String())
	}
}

func TestListStorageFailureIsOpaque(t *testing.T) {
	env := newFailingStoreEnv(t)
	assertOpaqueInternalError(t, env.get(t, "/api/windows"))
}

func TestGetStorageFailureIsOpaque(t *testing.T) {
	env := newFailingStoreEnv(t)
	assertOpaqueInternalError(t, env.get(t, "/api/windows/"+uuid.New().String()))
}

func TestUploadStorageFailureIsOpaque(t *testing.T) {
	env := newFailingStoreEnv(t)
	assertOpaqueInternalError(t, env.uploadFile(t, "photo.jpg", "image/jpeg", []byte("someimagedata")))
}
