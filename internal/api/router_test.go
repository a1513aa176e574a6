package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsctl/internal/platform/platformtest"
)

func TestRouter_RejectsWrites(t *testing.T) {
	router := NewRouter(testConfig(t), platformtest.New(""))

	for _, path := range []string{"/api/health", "/api/platform", "/api/state"} {
		rr := serve(t, router, http.MethodPost, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, path)
	}
}

func TestRouter_NoServiceActions(t *testing.T) {
	router := NewRouter(testConfig(t), platformtest.New(""))

	rr := serve(t, router, http.MethodPost, "/api/services/newscaster-bot/stop")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogStream_UnknownStream(t *testing.T) {
	router := NewRouter(testConfig(t), platformtest.New(""))

	rr := serve(t, router, http.MethodGet, "/api/logs?stream=journal")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogStream_StreamsAppendedLines(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ErrorLog(), []byte("old line\n"), 0o644))

	srv := httptest.NewServer(NewRouter(cfg, platformtest.New("")))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/logs?stream=stderr"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), cfg.ErrorLog())

	f, err := os.OpenFile(cfg.ErrorLog(), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("Traceback (most recent call last):\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Traceback (most recent call last):", string(msg))
}
