package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"movietracker/proj/internal/config"
	"movietracker/proj/internal/services"
	"movietracker/proj/internal/storage/memory"
	"movietracker/proj/internal/storage/photos"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type inlineTasks struct{}

func (inlineTasks) Add(task func()) { task() }

func (inlineTasks) Shutdown(context.Context) error { return nil }

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Auth.TokenSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Storage.StaticDir = t.TempDir()
	cfg.Storage.UploadsDir = "uploads"
	cfg.Storage.MaxUploadSize = 1 << 20
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Events.Driver = "none"
	return cfg
}

func NewTestApplication(cfg *config.Config, t *testing.T) *Application {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	photoStorage, err := photos.NewLocalStorage(cfg.Storage.StaticDir, cfg.Storage.UploadsDir)
	require.NoError(t, err)
	svc := services.New(log, cfg, services.NewMemoryStorage(memory.New()), services.Deps{
		Photos:       photoStorage,
		TaskExecutor: inlineTasks{},
	})
	svc.Auth.WithBcryptCost(bcrypt.MinCost)
	app := NewApplication(cfg, log, svc, inlineTasks{})
	t.Cleanup(app.Close)
	return app
}

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T, app *Application) *testServer {
	ts := httptest.NewServer(app.routes())
	t.Cleanup(ts.Close)
	return &testServer{ts, t}
}

type testResponse struct {
	Status int
	Body   Response
}

func (ts *testServer) do(method, path, token string, body any) testResponse {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(req, token)
}

func (ts *testServer) send(req *http.Request, token string) testResponse {
	ts.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	result := testResponse{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	if len(raw) > 0 {
		require.NoError(ts.t, json.Unmarshal(raw, &result.Body), string(raw))
	}
	return result
}

// signup registers a user and returns an access token for them.
func (ts *testServer) signup(username string) string {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/v1/accounts/signup", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	require.Equal(ts.t, http.StatusCreated, resp.Status)
	return ts.login(username, "password123")
}

func (ts *testServer) login(username, password string) string {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/v1/accounts/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(ts.t, http.StatusOK, resp.Status)
	return resp.Body.Data["access_token"].(string)
}

func (ts *testServer) adminToken(app *Application) string {
	ts.t.Helper()
	_, err := app.Services.Auth.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpassword")
	require.NoError(ts.t, err)
	return ts.login("root", "rootpassword")
}

func dataID(t *testing.T, resp testResponse, key string) int64 {
	t.Helper()
	obj, ok := resp.Body.Data[key].(map[string]any)
	require.True(t, ok, "missing %q in response data", key)
	return int64(obj["id"].(float64))
}
