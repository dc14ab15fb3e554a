package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal-backend/internal/config"
	"docportal-backend/internal/docgen"
	"docportal-backend/internal/extractor"
	"docportal-backend/internal/handlers"
	"docportal-backend/internal/logging"
	"docportal-backend/internal/memstore"
	"docportal-backend/internal/models"
	"docportal-backend/internal/services"
)

const (
	secret    = "test-secret-key-for-jwt-signing-must-be-long-enough"
	paragraph = `The service exposes a small HTTP API for tracking stock levels across warehouses and stores.
Every request is authenticated and validated before it reaches the storage layer underneath.
Operators can tune limits and timeouts through environment variables described in this guide.`
)

var generatedDoc = strings.Join([]string{
	"# Inventory API", paragraph + "\nSee main.go for the entry point.",
	"## Installation", paragraph,
	"# Usage", paragraph,
}, "\n\n")

type staticGenerator struct{}

func (staticGenerator) Generate(context.Context, docgen.Input) (*docgen.Result, error) {
	return &docgen.Result{Content: generatedDoc, Model: "gpt-test", GeneratedAt: time.Now()}, nil
}

type nopBlobs struct{}

func (nopBlobs) UploadFile(_, _ uuid.UUID, filename string, _ []byte, _ string) (string, string, error) {
	return "blobs/" + filename, "", nil
}

func (nopBlobs) DownloadFile(string) ([]byte, error) { return nil, errors.New("not stored") }

func (nopBlobs) DeleteProjectFiles(_, _ uuid.UUID) error { return nil }

type unreachableStore struct {
	*memstore.Store
}

func (unreachableStore) Ping(context.Context) error { return errors.New("connection refused") }

type harness struct {
	router *gin.Engine
	svc    *services.DocumentationService
	owner  uuid.UUID
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memstore.New())
}

func newHarnessWithStore(t *testing.T, store services.ProjectStore) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("MAX_UPLOAD_SIZE", "64KB")
	t.Setenv("MAX_FILE_SIZE", "16KB")
	t.Setenv("MAX_FILES", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	svc := services.NewDocumentationService(store, nopBlobs{}, extractor.New(logging.Discard()),
		staticGenerator{}, logging.Discard(), services.WithUploadBackoffs(0, 0, 0),
		services.WithUploadLimits(cfg.MaxFiles, cfg.MaxFileBytes()))
	t.Cleanup(svc.Wait)

	owner := uuid.New()
	return &harness{
		router: handlers.NewRouter(cfg, svc, logging.Discard()),
		svc:    svc,
		owner:  owner,
		token:  sign(t, owner, models.RoleUser),
	}
}

func sign(t *testing.T, user uuid.UUID, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.String(),
		"role": role,
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (h *harness) createProject(t *testing.T) string {
	t.Helper()
	body, ct := multipartBody(t,
		map[string]string{"title": "Inventory API", "description": "Tracks stock", "tags": "go,api"},
		map[string][]byte{"main.go": []byte("package main\n\nfunc main() {}\n")},
	)
	w := h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp models.ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusProcessing, resp.Status)
	assert.Equal(t, []string{"go", "api"}, resp.Tags)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "Go", resp.Files[0].Language)

	h.svc.Wait()
	return resp.ID
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := h.do(http.MethodGet, path, "", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ok")
	}
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	h := newHarnessWithStore(t, unreachableStore{memstore.New()})

	w := h.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "unreachable", resp.Database)
}

func TestProjectLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.createProject(t)
	base := "/api/v1/projects/" + id

	w := h.do(http.MethodGet, base+"/status", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)

	w = h.do(http.MethodGet, base+"/sections", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var secs models.SectionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &secs))
	require.Len(t, secs.Sections, 2)
	assert.Equal(t, "inventory-api", secs.Sections[0].ID)
	assert.Contains(t, secs.Sections[0].HTML, `data-file="main.go"`)
	assert.NotContains(t, secs.Sections[0].HTML, "Installation")
	require.Len(t, secs.Sections[0].Subsections, 1)
	assert.Equal(t, "installation", secs.Sections[0].Subsections[0].ID)

	payload := bytes.NewBufferString(`{"content":"<p>Run <code>make install</code>.</p>"}`)
	w = h.do(http.MethodPut, base+"/sections/installation", h.token, payload, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved models.SaveSectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "<p>Run <code>make install</code>.</p>", saved.HTML)

	w = h.do(http.MethodPut, base+"/sections/unknown", h.token, bytes.NewBufferString(`{"content":"x"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, base+"/files", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"filename":"main.go"`)

	w = h.do(http.MethodGet, base+"/files/main.go", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var file models.FileContentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	assert.Contains(t, file.Content, "func main()")

	w = h.do(http.MethodGet, base+"/files/missing.go", h.token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, base+"/export?format=html", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory-api.html")
	assert.Contains(t, w.Body.String(), "make install")

	w = h.do(http.MethodGet, base+"/export?format=docx", h.token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, base+"/regenerate", h.token, nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	h.svc.Wait()

	w = h.do(http.MethodGet, "/api/v1/projects/stats", h.token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.ProjectStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, models.ProjectStats{Total: 1, Completed: 1, TotalFiles: 1}, stats)

	w = h.do(http.MethodDelete, base, h.token, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, base, h.token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProjectErrors(t *testing.T) {
	h := newHarness(t)

	body, ct := multipartBody(t, map[string]string{"title": "Demo"}, map[string][]byte{"main.go": []byte("package main")})
	w := h.do(http.MethodPost, "/api/v1/projects", "", body, ct)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body, ct = multipartBody(t, map[string]string{"title": "Demo"}, map[string][]byte{"photo.jpg": {0xff, 0xd8}})
	w = h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no supported files")

	body, ct = multipartBody(t, map[string]string{"title": "D"}, map[string][]byte{"main.go": []byte("package main")})
	w = h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := bytes.Repeat([]byte("a"), 128*1024)
	body, ct = multipartBody(t, map[string]string{"title": "Demo"}, map[string][]byte{"big.txt": big})
	w = h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = h.do(http.MethodPost, "/api/v1/projects", h.token, bytes.NewBufferString(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	files := map[string][]byte{}
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		files[name] = []byte("x = 1")
	}
	body, ct = multipartBody(t, map[string]string{"title": "Demo"}, files)
	w = h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 3")

	body, ct = multipartBody(t, map[string]string{"title": "Demo"}, map[string][]byte{"data.py": bytes.Repeat([]byte("#"), 32*1024)})
	w = h.do(http.MethodPost, "/api/v1/projects", h.token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "data.py is too large")
}

func TestVisibility(t *testing.T) {
	h := newHarness(t)
	id := h.createProject(t)
	base := "/api/v1/projects/" + id

	stranger := sign(t, uuid.New(), models.RoleUser)
	admin := sign(t, uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, base, "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, base, stranger, nil, "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, base, admin, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/projects/not-a-uuid", h.token, nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, base, "garbage", nil, "").Code)

	w := h.do(http.MethodPut, base, h.token, bytes.NewBufferString(`{"is_public":true}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, base+"/sections", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, base, stranger, nil, "").Code)

	w = h.do(http.MethodGet, "/api/v1/projects", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Projects, 1)
	assert.Equal(t, id, list.Projects[0].ID)
	assert.Equal(t, 1, list.Projects[0].FileCount)

	w = h.do(http.MethodGet, "/api/v1/projects", stranger, nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Projects)

	w = h.do(http.MethodGet, "/api/v1/projects?scope=public", stranger, nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Projects, 1)
}
