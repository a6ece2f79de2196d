package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/assets"
	"github.com/annel0/chase-arena/internal/auth"
	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/physics"
	"github.com/annel0/chase-arena/internal/storage"
	"github.com/annel0/chase-arena/internal/world"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type stubLoader struct{}

func (stubLoader) LoadModel(ctx context.Context, path string) *assets.Handle[*assets.Model] {
	clips := map[string][]anim.Clip{
		"models/wolf.glb":  {{Name: "walk", Duration: time.Second}},
		"models/enemy.glb": {{Name: game.EnemyWalkClip, Duration: time.Second}, {Name: game.EnemyBiteClip, Duration: time.Second}},
		"models/goal.glb":  {{Name: "idle", Duration: time.Second}},
	}
	return assets.Resolved(&assets.Model{Path: path, Root: path, Clips: clips[path]})
}

func (stubLoader) LoadTexture(ctx context.Context, path string) *assets.Handle[*assets.Texture] {
	return assets.Resolved(&assets.Texture{Path: path})
}

type testEnv struct {
	server  *RestServer
	manager *game.Manager
	results *storage.MemoryResultStore
	bus     eventbus.EventBus
	tokens  *auth.TokenIssuer
}

type envOption func(*game.ManagerOptions, *Config)

func withAdminKey(t *testing.T, key string) envOption {
	hash, err := auth.HashKey(key)
	require.NoError(t, err)
	return func(_ *game.ManagerOptions, cfg *Config) { cfg.AdminKeyHash = hash }
}

func withMaxSessions(n int) envOption {
	return func(opts *game.ManagerOptions, _ *Config) { opts.MaxSessions = n }
}

func withWebhooks(owm *OutboundWebhookManager) envOption {
	return func(_ *game.ManagerOptions, cfg *Config) { cfg.Webhooks = owm }
}

func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()

	bus := eventbus.NewMemoryBus(64)
	t.Cleanup(func() { _ = bus.Close() })

	results := storage.NewMemoryResultStore()
	mopts := game.ManagerOptions{
		Arena:   world.NewArena(nil, world.ArenaConfig{GridCellSize: 8}, physics.DefaultProbeConfig()),
		Loader:  stubLoader{},
		Bus:     bus,
		Results: results,
	}
	tokens, err := auth.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	cfg := Config{
		Tokens:         tokens,
		StreamInterval: 20 * time.Millisecond,
		Registerer:     reg,
		Gatherer:       reg,
	}
	for _, o := range options {
		o(&mopts, &cfg)
	}

	mgr, err := game.NewManager(mopts)
	require.NoError(t, err)
	t.Cleanup(mgr.Close)
	cfg.Manager = mgr

	rs, err := NewRestServer(cfg)
	require.NoError(t, err)

	return &testEnv{server: rs, manager: mgr, results: results, bus: bus, tokens: tokens}
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, testResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w.Code, resp
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// createSession creates a session over HTTP and returns its id and token.
func (e *testEnv) createSession(t *testing.T, mode string) (string, string) {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/sessions", map[string]string{"mode": mode}, nil)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var created CreateSessionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.NotEmpty(t, created.SessionID)
	require.NotEmpty(t, created.Token)
	return created.SessionID, created.Token
}
