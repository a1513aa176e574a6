package api

import (
	"net/http"

	"newsctl/internal/config"
	"newsctl/internal/health"
	"newsctl/internal/platform"
)

// Router sets up the HTTP routes
type Router struct {
	handler  *Handler
	streamer *LogStreamer
	mux      *http.ServeMux
}

// NewRouter creates a new router with all API endpoints
func NewRouter(cfg config.Config, sys platform.InitSystem) *Router {
	r := &Router{
		handler:  NewHandler(sys, health.NewChecker(cfg, sys)),
		streamer: NewLogStreamer(cfg),
		mux:      http.NewServeMux(),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/platform", getOnly(r.handler.GetPlatform))
	r.mux.HandleFunc("/api/health", getOnly(r.handler.GetHealth))
	r.mux.HandleFunc("/api/state", getOnly(r.handler.GetState))
	r.mux.HandleFunc("/api/logs", r.streamer.HandleLogStream)
}

func getOnly(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, req)
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
