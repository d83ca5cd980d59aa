package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/services"
	"github.com/fosterfinance/deal-assistant/pkg/session"
)

// ProposalResponse for POST /api/proposals.
type ProposalResponse struct {
	Proposal    string     `json:"proposal"`
	Provider    string     `json:"provider"`
	Model       string     `json:"model"`
	Attempts    int        `json:"attempts"`
	ContextMode string     `json:"context_mode"`
	Label       string     `json:"label"`
	Matches     []MatchRow `json:"matches"`
	Trace       []string   `json:"trace"`
	GeneratedAt string     `json:"generated_at"`
}

// GenerationFailureResponse is the error body for a failed generation.
type GenerationFailureResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Model    string   `json:"model"`
	Attempts int      `json:"attempts"`
	Trace    []string `json:"trace"`
}

func traceStrings(trace []models.GenerationState) []string {
	out := make([]string, len(trace))
	for i, s := range trace {
		out[i] = string(s)
	}
	return out
}

// ProposalsHandler drafts credit proposals.
type ProposalsHandler struct {
	proposals services.ProposalService
	sessions  *session.Manager
	logger    *zap.Logger
}

// NewProposalsHandler creates a new proposals handler.
func NewProposalsHandler(proposals services.ProposalService, sessions *session.Manager, logger *zap.Logger) *ProposalsHandler {
	return &ProposalsHandler{
		proposals: proposals,
		sessions:  sessions,
		logger:    logger,
	}
}

// RegisterRoutes registers the proposal routes.
func (h *ProposalsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/proposals", h.sessions.Middleware(http.HandlerFunc(h.Generate)))
}

// Generate runs scoring, prompt assembly and the provider call for the
// caller's session. The request blocks until the provider answers or the
// retry budget is spent.
func (h *ProposalsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !DecodeJSON(w, r, &req, h.logger) {
		return
	}

	store := h.sessions.Store()
	sess, ok := RequireSession(w, r, store, h.logger)
	if !ok {
		return
	}

	proposal, err := h.proposals.Generate(r.Context(), &sess, req.Query)
	if err != nil {
		var genErr *services.GenerationError
		if errors.As(err, &genErr) {
			h.writeGenerationFailure(w, err, genErr)
			return
		}
		writeServiceError(w, err, h.logger)
		return
	}

	if !commitSession(w, store, sess.ID, func(s *models.Session) { s.Query = req.Query }, h.logger) {
		return
	}

	response := ProposalResponse{
		Proposal:    proposal.Text,
		Provider:    proposal.Provider,
		Model:       proposal.Model,
		Attempts:    proposal.Attempts,
		ContextMode: string(proposal.Context.Mode),
		Label:       proposal.Context.Label(),
		Matches:     newMatchRows(proposal.Context),
		Trace:       traceStrings(proposal.Trace),
		GeneratedAt: proposal.GeneratedAt.Format(time.RFC3339),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ProposalsHandler) writeGenerationFailure(w http.ResponseWriter, err error, genErr *services.GenerationError) {
	status, code := ErrorStatus(err)
	response := GenerationFailureResponse{
		Error:    code,
		Message:  services.UserMessage(err),
		Model:    genErr.Model,
		Attempts: genErr.Attempts,
		Trace:    traceStrings(genErr.Trace),
	}
	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
