package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/config"
	"github.com/fosterfinance/deal-assistant/pkg/deals"
	"github.com/fosterfinance/deal-assistant/pkg/metrics"
	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/services"
	"github.com/fosterfinance/deal-assistant/pkg/session"
)

// defaultUploadName is used when a raw CSV body carries no name.
const defaultUploadName = "Database.csv"

// UploadResponse for POST /api/deals.
type UploadResponse struct {
	SourceName string   `json:"source_name"`
	Rows       int      `json:"rows"`
	Columns    []string `json:"columns"`
}

// QueryRequest for POST /api/deals/match and POST /api/proposals.
type QueryRequest struct {
	Query string `json:"query"`
}

// MatchRow is one ranked historic deal.
type MatchRow struct {
	Row    int               `json:"row"`
	Score  int               `json:"score"`
	Values map[string]string `json:"values"`
}

// MatchResponse for POST /api/deals/match.
type MatchResponse struct {
	Mode     string     `json:"mode"`
	Label    string     `json:"label"`
	Terms    []string   `json:"terms"`
	MaxScore int        `json:"max_score"`
	Matches  []MatchRow `json:"matches"`
}

func newMatchRows(set *models.ContextSet) []MatchRow {
	rows := make([]MatchRow, 0, set.Len())
	if set == nil {
		return rows
	}
	for _, c := range set.Candidates {
		rows = append(rows, MatchRow{
			Row:    c.Record.Index + 1,
			Score:  c.Score,
			Values: c.Record.Values,
		})
	}
	return rows
}

// DealsHandler handles deal database uploads and rank previews.
type DealsHandler struct {
	proposals services.ProposalService
	store     *session.Store
	sessions  *session.Manager
	uploads   config.UploadConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDealsHandler creates a new deals handler. m may be nil.
func NewDealsHandler(
	proposals services.ProposalService,
	sessions *session.Manager,
	uploads config.UploadConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DealsHandler {
	return &DealsHandler{
		proposals: proposals,
		store:     sessions.Store(),
		sessions:  sessions,
		uploads:   uploads,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes registers the deal routes.
func (h *DealsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/deals", h.sessions.Middleware(http.HandlerFunc(h.Upload)))
	mux.Handle("POST /api/deals/match", h.sessions.Middleware(http.HandlerFunc(h.Match)))
}

// Upload accepts a CSV either as multipart field "file" or as a raw
// text/csv body, validates it and replaces the session's table.
func (h *DealsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := RequireSession(w, r, h.store, h.logger)
	if !ok {
		return
	}

	body, name, closeFn, err := h.openUpload(w, r)
	if err != nil {
		h.rejectUpload(w, err)
		return
	}
	defer closeFn()

	table, err := deals.Load(body, name, h.uploads.MaxRows)
	if err != nil {
		h.rejectUpload(w, err)
		return
	}

	if !commitSession(w, h.store, sess.ID, func(s *models.Session) {
		s.ReplaceTable(table)
	}, h.logger) {
		return
	}
	h.metrics.ObserveUpload(metrics.UploadAccepted, table.Len())

	h.logger.Info("Deal database loaded",
		zap.String("source", table.SourceName),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)))

	response := UploadResponse{
		SourceName: table.SourceName,
		Rows:       table.Len(),
		Columns:    table.Columns,
	}
	msg := "Database Active: " + pluralRows(table.Len()) + " loaded."
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response, Message: msg}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 deal scenario"
	}
	return strconv.Itoa(n) + " deal scenarios"
}

// openUpload returns the CSV stream, its display name and a close function.
func (h *DealsHandler) openUpload(w http.ResponseWriter, r *http.Request) (io.Reader, string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = defaultUploadName
		}
		return r.Body, name, func() {}, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", nil, err
	}
	return file, header.Filename, func() { _ = file.Close() }, nil
}

func (h *DealsHandler) rejectUpload(w http.ResponseWriter, err error) {
	h.metrics.ObserveUpload(metrics.UploadRejected, 0)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		if err := ErrorResponse(w, http.StatusRequestEntityTooLarge, "file_too_large", "File Error: the upload exceeds the size limit."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	case errors.Is(err, http.ErrMissingFile):
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "Please upload your Database.csv to begin."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	status, _ := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		// Anything the loader did not classify is a malformed file.
		h.logger.Warn("Rejected malformed upload", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_csv", "File Error: "+err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	writeServiceError(w, err, h.logger)
}

// Match ranks the session's table against a scenario without calling a provider.
func (h *DealsHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !DecodeJSON(w, r, &req, h.logger) {
		return
	}

	sess, ok := RequireSession(w, r, h.store, h.logger)
	if !ok {
		return
	}

	set, err := h.proposals.Match(&sess, req.Query)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if !commitSession(w, h.store, sess.ID, func(s *models.Session) { s.Query = req.Query }, h.logger) {
		return
	}

	response := MatchResponse{
		Mode:     string(set.Mode),
		Label:    set.Label(),
		Terms:    set.Terms,
		MaxScore: set.MaxScore,
		Matches:  newMatchRows(set),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
