package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/deals"
	"github.com/fosterfinance/deal-assistant/pkg/services"
)

// ApiResponse is the envelope for successful API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorStatus maps a workflow error to an HTTP status and error code.
func ErrorStatus(err error) (int, string) {
	var genErr *services.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case services.GenerationModelUnavailable:
			return http.StatusUnprocessableEntity, string(genErr.Kind)
		case services.GenerationQuotaExhausted:
			return http.StatusTooManyRequests, string(genErr.Kind)
		case services.GenerationAuth:
			return http.StatusUnauthorized, string(genErr.Kind)
		default:
			return http.StatusBadGateway, "generation_failed"
		}
	}

	var missing *deals.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, "missing_columns"
	case errors.Is(err, deals.ErrEmptyFile):
		return http.StatusBadRequest, "empty_file"
	case errors.Is(err, deals.ErrTooManyRows):
		return http.StatusRequestEntityTooLarge, "too_many_rows"
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusUnauthorized, "session_expired"
	case errors.Is(err, apperrors.ErrEmptyQuery):
		return http.StatusBadRequest, "empty_query"
	case errors.Is(err, apperrors.ErrNoTable):
		return http.StatusBadRequest, "no_table"
	case errors.Is(err, apperrors.ErrMissingCredential):
		return http.StatusBadRequest, "missing_credential"
	case errors.Is(err, apperrors.ErrNoModel):
		return http.StatusBadRequest, "no_model"
	case errors.Is(err, apperrors.ErrUnknownModel):
		return http.StatusBadRequest, "unknown_model"
	case apperrors.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeServiceError writes err with the analyst-facing message.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, code := ErrorStatus(err)
	if err := ErrorResponse(w, status, code, services.UserMessage(err)); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
