package server_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-mqtt-relay/pkg/server"
)

// recordingHandler stands in for the relay and remembers the escaped paths
// it was asked to serve.
type recordingHandler struct {
	mu    sync.Mutex
	paths []string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.paths = append(h.paths, r.URL.EscapedPath())
	h.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("relayed"))
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func startTestServer(t *testing.T, relayHandler http.Handler) *server.Server {
	t.Helper()
	cfg := server.Config{Host: "127.0.0.1", Port: "0"}
	srv := server.New(cfg, relayHandler, prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerRouting(t *testing.T) {
	relay := &recordingHandler{}
	srv := startTestServer(t, relay)
	base := "http://" + srv.Addr()

	t.Run("Healthz answers OK", func(t *testing.T) {
		status, body := get(t, base+"/healthz")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", body)
	})

	t.Run("Metrics endpoint is served", func(t *testing.T) {
		status, _ := get(t, base+"/metrics")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("GET requests reach the relay handler", func(t *testing.T) {
		status, body := get(t, base+"/lights/on")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "relayed", body)
		assert.Contains(t, relay.seen(), "/lights/on")
	})

	t.Run("Trailing slash is passed through without a redirect", func(t *testing.T) {
		status, _ := get(t, base+"/lights/")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, relay.seen(), "/lights/")
	})

	t.Run("Near-miss probe paths still reach the relay", func(t *testing.T) {
		status, body := get(t, base+"/healthz/x")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "relayed", body)
		assert.Contains(t, relay.seen(), "/healthz/x")
	})

	t.Run("Non-GET methods are refused", func(t *testing.T) {
		resp, err := http.Post(base+"/lights/on", "text/plain", strings.NewReader("on"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServerLifecycle(t *testing.T) {
	t.Run("Start binds an ephemeral port and Addr reports it", func(t *testing.T) {
		srv := startTestServer(t, &recordingHandler{})
		assert.NotEmpty(t, srv.Addr())
		assert.NotContains(t, srv.Addr(), ":0")
	})

	t.Run("Shutdown stops the listener", func(t *testing.T) {
		cfg := server.Config{Host: "127.0.0.1", Port: "0"}
		srv := server.New(cfg, &recordingHandler{}, prometheus.NewRegistry(), zerolog.Nop())
		require.NoError(t, srv.Start())
		addr := srv.Addr()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, srv.Shutdown(shutdownCtx))

		_, err := http.Get("http://" + addr + "/healthz")
		assert.Error(t, err)
	})
}

func TestConfigAddr(t *testing.T) {
	t.Run("Empty host binds every interface", func(t *testing.T) {
		cfg := server.Config{Port: "8234"}
		assert.Equal(t, ":8234", cfg.Addr())
	})

	t.Run("Host and port are joined", func(t *testing.T) {
		cfg := server.Config{Host: "127.0.0.1", Port: "8234"}
		assert.Equal(t, "127.0.0.1:8234", cfg.Addr())
	})
}
