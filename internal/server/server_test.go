package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/model"
	sqliteRepo "github.com/sakif/user-service/internal/repository/sqlite"
)

// newTestServer runs the full stack against an in-memory database.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		HTTP:      config.HTTPConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Database:  config.DatabaseConfig{URL: "sqlite::memory:", Path: sqliteRepo.MemoryDSN, MaxOpenConns: 1},
		RateLimit: config.RateLimitConfig{RPS: 0},
		LogLevel:  slog.LevelError,
	}
	for _, m := range mutate {
		m(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestUsersScenario(t *testing.T) {
	ts := newTestServer(t)

	// Create
	resp := do(t, http.MethodPost, ts.URL+"/users", `{"username":"drei","email":"drei@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.User](t, resp)
	assert.Equal(t, model.User{ID: 1, Username: "drei", Email: "drei@example.com"}, created)

	// Get returns the same object
	resp = do(t, http.MethodGet, ts.URL+"/users/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[model.User](t, resp))

	// Delete
	resp = do(t, http.MethodDelete, ts.URL+"/users/1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone
	resp = do(t, http.MethodGet, ts.URL+"/users/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/users/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListGrowsWithCreates(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))

	var want []model.User
	for _, name := range []string{"eins", "zwei", "drei"} {
		resp := do(t, http.MethodPost, ts.URL+"/users",
			`{"username":"`+name+`","email":"`+name+`@example.com"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		want = append(want, decode[model.User](t, resp))
	}

	resp = do(t, http.MethodGet, ts.URL+"/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, want, decode[[]model.User](t, resp))
}

func TestCreateValidationPersistsNothing(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{
		`{"username":"","email":"a@example.com"}`,
		`{"username":"drei","email":""}`,
		`{"email":"a@example.com"}`,
		`{}`,
	} {
		resp := do(t, http.MethodPost, ts.URL+"/users", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp := do(t, http.MethodGet, ts.URL+"/users", "")
	assert.Empty(t, decode[[]model.User](t, resp))
}

func TestMalformedRequests(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/users/1e3", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/users", `{"username":"drei"`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestNonexistentIDIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, id := range []string{"0", "-1", "42"} {
		resp := do(t, http.MethodGet, ts.URL+"/users/"+id, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "GET /users/"+id)

		resp = do(t, http.MethodDelete, ts.URL+"/users/"+id, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "DELETE /users/"+id)
	}
}

func TestNoUpdateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/users/1", `{"username":"x","email":"y"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = do(t, http.MethodPatch, ts.URL+"/users/1", `{"username":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "UP", decode[map[string]string](t, resp)["status"])

	// Generate one request so the counter has a series.
	do(t, http.MethodGet, ts.URL+"/users", "")

	resp = do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/users",status="200"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/users", "")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRateLimitAppliesToUsersOnly(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1}
	})

	resp := do(t, http.MethodGet, ts.URL+"/users", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/users", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Health is outside the limited group.
	resp = do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConcurrentCreates(t *testing.T) {
	ts := newTestServer(t)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			resp, err := http.Post(ts.URL+"/users", "application/json",
				bytes.NewBufferString(`{"username":"c","email":"c@example.com"}`))
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode != http.StatusCreated {
					err = &statusError{resp.StatusCode}
				}
			}
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	resp := do(t, http.MethodGet, ts.URL+"/users", "")
	users := decode[[]model.User](t, resp)
	assert.Len(t, users, n)

	seen := make(map[int64]bool, n)
	for _, u := range users {
		assert.False(t, seen[u.ID], "duplicate id %d", u.ID)
		seen[u.ID] = true
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }
