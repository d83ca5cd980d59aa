package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/session"
)

// maxJSONBody bounds JSON request bodies. Uploads have their own limit.
const maxJSONBody = 1 << 20

// RequireSession loads the caller's session set by session.Manager.Middleware.
// Returns the session copy and true on success, or false on error
// (after writing an error response).
func RequireSession(w http.ResponseWriter, r *http.Request, store *session.Store, logger *zap.Logger) (models.Session, bool) {
	id, ok := session.IDFromContext(r.Context())
	if !ok {
		writeServiceError(w, apperrors.ErrSessionNotFound, logger)
		return models.Session{}, false
	}
	sess, err := store.Get(id)
	if err != nil {
		writeServiceError(w, err, logger)
		return models.Session{}, false
	}
	return sess, true
}

// commitSession writes the changed fields of sess back to the store.
func commitSession(w http.ResponseWriter, store *session.Store, id uuid.UUID, apply func(*models.Session), logger *zap.Logger) bool {
	_, err := store.Update(id, func(s *models.Session) error {
		apply(s)
		return nil
	})
	if err != nil {
		writeServiceError(w, err, logger)
		return false
	}
	return true
}

// DecodeJSON decodes a bounded JSON body into dst.
// Returns false (after writing an error response) when the body is invalid.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}
