package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/services"
	"github.com/fosterfinance/deal-assistant/pkg/session"
)

// CredentialRequest for POST /api/session/credential.
type CredentialRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// ModelRequest for PUT /api/session/model.
type ModelRequest struct {
	Model string `json:"model"`
}

// SessionResponse summarises a session. The API key is masked.
type SessionResponse struct {
	Provider        string   `json:"provider,omitempty"`
	APIKey          string   `json:"api_key,omitempty"`
	Model           string   `json:"model,omitempty"`
	AvailableModels []string `json:"available_models"`
	HasCredential   bool     `json:"has_credential"`
	SourceName      string   `json:"source_name,omitempty"`
	RowsLoaded      int      `json:"rows_loaded"`
	Columns         []string `json:"columns,omitempty"`
	Query           string   `json:"query,omitempty"`
}

func newSessionResponse(sess models.Session) SessionResponse {
	resp := SessionResponse{
		Provider:        sess.Provider,
		APIKey:          models.MaskedAPIKey(sess.APIKey),
		Model:           sess.Model,
		AvailableModels: sess.AvailableModels,
		HasCredential:   sess.HasCredential(),
		Query:           sess.Query,
	}
	if resp.AvailableModels == nil {
		resp.AvailableModels = []string{}
	}
	if sess.HasTable() {
		resp.SourceName = sess.Table.SourceName
		resp.RowsLoaded = sess.Table.Len()
		resp.Columns = sess.Table.Columns
	}
	return resp
}

// SessionHandler handles credential and model selection for the caller's session.
type SessionHandler struct {
	modelService services.ModelService
	sessions     *session.Manager
	logger       *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(modelService services.ModelService, sessions *session.Manager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		modelService: modelService,
		sessions:     sessions,
		logger:       logger,
	}
}

// RegisterRoutes registers the session routes.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/session", h.sessions.Middleware(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/session", h.sessions.Middleware(http.HandlerFunc(h.Reset)))
	mux.Handle("POST /api/session/credential", h.sessions.Middleware(http.HandlerFunc(h.Connect)))
	mux.Handle("PUT /api/session/model", h.sessions.Middleware(http.HandlerFunc(h.ChooseModel)))
}

// Get returns the caller's session summary.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := RequireSession(w, r, h.sessions.Store(), h.logger)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: newSessionResponse(sess)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reset discards the caller's table, credential and model.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Reset(w, r)
	if err != nil {
		h.logger.Error("Failed to reset session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to reset session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: newSessionResponse(sess)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Connect stores a provider credential and picks a model.
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !DecodeJSON(w, r, &req, h.logger) {
		return
	}

	sess, ok := RequireSession(w, r, h.sessions.Store(), h.logger)
	if !ok {
		return
	}

	result, err := h.modelService.Connect(r.Context(), &sess, req.Provider, req.APIKey)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if !commitSession(w, h.sessions.Store(), sess.ID, func(s *models.Session) {
		s.SetConnection(sess.Provider, sess.APIKey, sess.AvailableModels, sess.Model)
	}, h.logger) {
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result, Message: result.Message}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ChooseModel overrides the auto-selected model.
func (h *SessionHandler) ChooseModel(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if !DecodeJSON(w, r, &req, h.logger) {
		return
	}

	sess, ok := RequireSession(w, r, h.sessions.Store(), h.logger)
	if !ok {
		return
	}

	if err := h.modelService.Choose(&sess, req.Model); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if !commitSession(w, h.sessions.Store(), sess.ID, func(s *models.Session) {
		s.Model = sess.Model
	}, h.logger) {
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: newSessionResponse(sess)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
