package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/middleware"
	"cloudtab/internal/services"
	"cloudtab/internal/store"
	"cloudtab/internal/transport/httpdto"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()

	st, err := store.NewFileStore(filepath.Join(root, "sessions"))
	require.NoError(t, err)
	blobs, err := blob.NewDiskStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	master, err := crypto.GenerateKey()
	require.NoError(t, err)
	tmpDir := filepath.Join(root, "tmp")
	require.NoError(t, os.MkdirAll(tmpDir, 0o700))

	sessions := services.NewSessionService(st, blobs, master, 5*time.Minute, nil)
	validator := services.NewFileValidator(50 << 20)
	ingest := services.NewIngestService(sessions, blobs, validator, nil)
	retrieve := services.NewRetrieveService(sessions, blobs, tmpDir, nil)

	upload := NewUploadHandler(sessions, ingest, 10, tmpDir, nil)
	sessHandler := NewSessionHandler(sessions, retrieve, "http://localhost:5000", nil)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/upload", upload.Upload)
	sess := api.Group("/session/:code", middleware.SessionCodeMiddleware())
	sess.GET("", sessHandler.Get)
	sess.POST("/complete", sessHandler.Complete)
	sess.GET("/qr", sessHandler.QR)
	sess.GET("/file/:fileID/view", sessHandler.ViewFile)
	sess.GET("/file/:fileID/download", sessHandler.DownloadFile)
	return r
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		h.Set("Content-Type", "text/plain")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, files map[string][]byte) httpdto.UploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp httpdto.Response[httpdto.UploadResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestUploadCreatesSession(t *testing.T) {
	r := newTestRouter(t)

	up := doUpload(t, r, map[string][]byte{"order.txt": []byte("print three copies")})

	assert.True(t, store.ValidCode(up.SessionID))
	assert.Equal(t, "active", up.Status)
	require.Len(t, up.Files, 1)
	assert.Equal(t, "order.txt", up.Files[0].Name)
	assert.NotEmpty(t, up.Files[0].ID)
}

func TestUploadNoFiles(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_FILES")
}

func TestUploadRejectsDisallowedFile(t *testing.T) {
	r := newTestRouter(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="files"; filename="evil.exe"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	content := []byte("order #5512: laminate and bind")
	up := doUpload(t, r, map[string][]byte{"order.txt": content})

	// Session is readable, case-insensitively, and never exposes the key.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+up.SessionID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"key"`)

	var view httpdto.Response[httpdto.SessionView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, up.SessionID, view.Data.SessionID)
	require.Len(t, view.Data.Files, 1)

	// Viewing streams the decrypted plaintext with no-store headers.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/session/"+up.SessionID+"/file/"+up.Files[0].ID+"/view", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "inline", rec.Header().Get("Content-Disposition"))

	// Download to disk is refused.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/session/"+up.SessionID+"/file/"+up.Files[0].ID+"/download", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "DOWNLOAD_DISABLED")

	// QR for the shopkeeper URL renders as PNG.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+up.SessionID+"/qr", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	// Completion destroys the session; everything 404s afterwards.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/"+up.SessionID+"/complete", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+up.SessionID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/session/"+up.SessionID+"/file/"+up.Files[0].ID+"/view", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionCodeValidation(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/bad!", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CODE")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/ZZZZZZ", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_NOT_FOUND")
}

func TestUnknownFileInLiveSession(t *testing.T) {
	r := newTestRouter(t)

	up := doUpload(t, r, map[string][]byte{"order.txt": []byte("x")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/session/"+up.SessionID+"/file/1_missing/view", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE_NOT_FOUND")
}
