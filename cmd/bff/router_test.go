package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	r, err := setupRouter(Config{BackendURL: "http://127.0.0.1:1", ImageDir: t.TempDir()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"bff"`)
}

func TestSetupRouter_RejectsBadBackend(t *testing.T) {
	_, err := setupRouter(Config{BackendURL: "not a url"})
	assert.Error(t, err)
}

func TestAPIProxy_StripsPrefix(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"loose":[]}`))
	}))
	defer backend.Close()

	r, err := setupRouter(Config{BackendURL: backend.URL, ImageDir: t.TempDir()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/desk", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/desk", gotPath)
}

func TestAPIProxy_BackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	url := backend.URL
	backend.Close()

	r, err := setupRouter(Config{BackendURL: url, ImageDir: t.TempDir()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/desk", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestReady(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sick.Close()

	for _, tc := range []struct {
		backend string
		status  int
	}{
		{healthy.URL, http.StatusOK},
		{sick.URL, http.StatusServiceUnavailable},
	} {
		r, err := setupRouter(Config{BackendURL: tc.backend, ImageDir: t.TempDir()})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, tc.status, w.Code)
	}
}

func TestImages_ServedFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img1.png"), []byte("png-bytes"), 0o600))

	r, err := setupRouter(Config{BackendURL: "http://127.0.0.1:1", ImageDir: dir})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/image/img1.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "png-bytes"))
}

func TestWaitForBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	assert.NoError(t, waitForBackend(backend.URL, 2*time.Second))
}

func TestCORS_PreflightAndProxiedHeaders(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	r, err := setupRouter(Config{BackendURL: backend.URL, ImageDir: t.TempDir(), AllowedOrigin: "http://localhost:5173"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/desk/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/desk", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"http://localhost:5173"}, w.Header().Values("Access-Control-Allow-Origin"))
}
