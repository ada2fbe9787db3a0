package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inventory/internal/config"
	"inventory/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             3000,
		Database:         config.DatabaseConfig{Driver: config.DriverMemory},
		Cache:            config.CacheConfig{Driver: config.CacheNone, TTL: time.Minute},
		LogLevel:         slog.LevelInfo,
		CORSAllowOrigins: "*",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(t.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestServer_Health(t *testing.T) {
	a := newTestApp(t, testConfig())

	resp, err := a.Server.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	_, err = time.Parse(time.RFC3339, body["time"])
	assert.NoError(t, err)
}

func TestServer_CORS(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := a.Server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_UnknownRouteIsJSON(t *testing.T) {
	a := newTestApp(t, testConfig())

	resp, err := a.Server.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["message"])
}

func TestServer_StaticBundle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>inventory</h1>"), 0o600))
	cfg := testConfig()
	cfg.StaticDir = dir
	a := newTestApp(t, cfg)

	resp, err := a.Server.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "inventory")

	resp, err = a.Server.Test(httptest.NewRequest(http.MethodGet, "/products", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestNew_InitializeDBSeeds(t *testing.T) {
	cfg := testConfig()
	cfg.InitializeDB = true
	a := newTestApp(t, cfg)

	resp, err := a.Server.Test(httptest.NewRequest(http.MethodGet, "/products?page=10&limit=10", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var page models.ProductPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(100), page.Total)
	assert.Len(t, page.Data, 10)
}

func TestNew_RedisListCacheInvalidatedOnWrite(t *testing.T) {
	m := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Driver: config.CacheRedis, TTL: time.Minute}
	cfg.Redis = config.RedisConfig{Addr: m.Addr()}
	a := newTestApp(t, cfg)

	list := func() models.ProductPage {
		resp, err := a.Server.Test(httptest.NewRequest(http.MethodGet, "/products", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var page models.ProductPage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		return page
	}

	assert.Equal(t, int64(0), list().Total)
	assert.NotEmpty(t, m.Keys())

	body := []byte(`{"name":"Lamp","article":"L-1","price":20,"quantity":3}`)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Server.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(1), list().Total)
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Driver: config.CacheRedis}
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}

	_, err := New(t.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
