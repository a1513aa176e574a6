package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"newsctl/internal/config"
	"newsctl/internal/logger"
	"newsctl/internal/logtail"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for localhost usage
	},
}

// LogStreamer handles WebSocket connections for log streaming
type LogStreamer struct {
	cfg config.Config
}

// NewLogStreamer creates a new log streamer
func NewLogStreamer(cfg config.Config) *LogStreamer {
	return &LogStreamer{cfg: cfg}
}

// logPath maps the stream query parameter to a log file.
func (ls *LogStreamer) logPath(stream string) (string, bool) {
	switch stream {
	case "", "stdout":
		return ls.cfg.OutputLog(), true
	case "stderr":
		return ls.cfg.ErrorLog(), true
	default:
		return "", false
	}
}

// HandleLogStream streams lines appended to the bot's output or error log.
func (ls *LogStreamer) HandleLogStream(w http.ResponseWriter, r *http.Request) {
	stream := r.URL.Query().Get("stream")
	path, ok := ls.logPath(stream)
	if !ok {
		http.Error(w, "stream must be stdout or stderr", http.StatusBadRequest)
		return
	}

	logger.Debug("websocket log stream requested", "path", path)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "path", path, "error", err)
		return
	}
	defer conn.Close()

	logger.Info("websocket connected", "path", path, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Handle client disconnect
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket client disconnected", "path", path)
				cancel()
				return
			}
		}
	}()

	lines, err := logtail.Follow(ctx, path)
	if err != nil {
		logger.Error("failed to start log stream", "path", path, "error", err)
		conn.WriteMessage(websocket.TextMessage, []byte("Error: "+err.Error()))
		return
	}

	conn.WriteMessage(websocket.TextMessage, []byte("--- Connected to "+path+" ---"))

	for {
		select {
		case <-ctx.Done():
			logger.Debug("websocket stream ended", "path", path, "reason", "context cancelled")
			return
		case line, ok := <-lines:
			if !ok {
				logger.Debug("websocket stream ended", "path", path, "reason", "channel closed")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				logger.Debug("websocket write failed", "path", path, "error", err)
				return
			}
		}
	}
}
