package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/api/handlers"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/internal/store"
)

func startTestServer(t *testing.T) (*Manager, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.APIKey = "test-key"
	cfg.JWTSecret = "test-secret"

	router := NewRouter(cfg, st, handlers.NewHub(), nil, "test", zap.NewNop())
	m := NewManager(router, cfg, zap.NewNop())
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	return m, "http://" + m.Addr()
}

func TestHealthzUnauthenticated(t *testing.T) {
	_, base := startTestServer(t)

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestScansRequireAuth(t *testing.T) {
	_, base := startTestServer(t)

	resp, err := http.Get(base + "/api/v1/scans")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, base+"/api/v1/scans", nil)
	req.Header.Set("X-API-Key", "test-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, base := startTestServer(t)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDoubleStartRejected(t *testing.T) {
	m, _ := startTestServer(t)
	assert.Error(t, m.Start())
}

func TestShutdownIdempotent(t *testing.T) {
	m, _ := startTestServer(t)
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	// a closed manager refuses to start again
	assert.Error(t, m.Start())
}
