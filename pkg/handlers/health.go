package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/config"
)

// SessionCounter reports how many analyst sessions are held in memory.
type SessionCounter interface {
	Len() int
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Service        string `json:"service"`
	GoVersion      string `json:"go_version"`
	Hostname       string `json:"hostname"`
	Environment    string `json:"environment"`
	Provider       string `json:"provider"`
	ActiveSessions int    `json:"active_sessions"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	sessions SessionCounter
	started  time.Time
	logger   *zap.Logger
}

// NewHealthHandler creates a HealthHandler reporting on the given session store.
func NewHealthHandler(cfg *config.Config, sessions SessionCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:      cfg,
		sessions: sessions,
		started:  time.Now(),
		logger:   logger,
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:         "ok",
		ActiveSessions: h.sessions.Len(),
		UptimeSeconds:  int64(time.Since(h.started) / time.Second),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests with build and deployment details.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:         "ok",
		Version:        h.cfg.Version,
		Service:        "deal-assistant",
		GoVersion:      runtime.Version(),
		Hostname:       hostname,
		Environment:    h.cfg.Env,
		Provider:       h.cfg.Provider.Default,
		ActiveSessions: h.sessions.Len(),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
