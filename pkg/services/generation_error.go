package services

import (
	"errors"
	"fmt"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/deals"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/logging"
	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// GenerationKind tells the analyst what to change after a failed generation.
type GenerationKind string

const (
	GenerationModelUnavailable GenerationKind = "model_unavailable"
	GenerationQuotaExhausted   GenerationKind = "quota_exhausted"
	GenerationAuth             GenerationKind = "auth"
	GenerationFailed           GenerationKind = "failed"
)

// GenerationError is a provider failure that ended a generation, either
// immediately or after the retry budget was spent.
type GenerationError struct {
	Kind     GenerationKind
	Model    string
	Attempts int
	Trace    []models.GenerationState
	Guidance string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(err error, model string, attempts int, trace []models.GenerationState) *GenerationError {
	kind := GenerationFailed
	switch llm.GetErrorType(err) {
	case llm.ErrorTypeModel:
		kind = GenerationModelUnavailable
	case llm.ErrorTypeQuota:
		kind = GenerationQuotaExhausted
	case llm.ErrorTypeAuth:
		kind = GenerationAuth
	}

	return &GenerationError{
		Kind:     kind,
		Model:    model,
		Attempts: attempts,
		Trace:    trace,
		Guidance: guidance(kind, model, err),
		Err:      err,
	}
}

func guidance(kind GenerationKind, model string, err error) string {
	switch kind {
	case GenerationModelUnavailable:
		return fmt.Sprintf("Action Required: The model '%s' is not currently available for this key. "+
			"Select a different model under Active Model (for example Gemini 1.5 Flash) to continue.", model)
	case GenerationQuotaExhausted:
		return "Action Required: Daily Limit Reached. Please create a NEW Project Key or select a different model."
	case GenerationAuth:
		return "Action Required: The provider rejected this API key. Check the key and connect again."
	default:
		return "Technical Error: " + causeText(err)
	}
}

// causeText is the sanitized message of the innermost provider error.
func causeText(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) && llmErr.Cause != nil {
		return logging.SanitizeError(llmErr.Cause)
	}
	return logging.SanitizeError(err)
}

// UserMessage turns any error from the deal workflow into the status text
// shown to the analyst. It never exposes API keys.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return "Generation Failed. " + genErr.Guidance
	}

	var missing *deals.MissingColumnsError
	if errors.As(err, &missing) {
		return "Error: " + missing.Error()
	}

	switch {
	case errors.Is(err, deals.ErrEmptyFile):
		return "File Error: the uploaded file is empty."
	case errors.Is(err, deals.ErrTooManyRows):
		return "File Error: " + err.Error()
	case errors.Is(err, apperrors.ErrEmptyQuery):
		return "Please describe the client's scenario before generating."
	case errors.Is(err, apperrors.ErrNoTable):
		return "Please upload your Database.csv to begin."
	case errors.Is(err, apperrors.ErrMissingCredential):
		return "Please enter your API Key in the sidebar."
	case errors.Is(err, apperrors.ErrNoModel):
		return "Please select a valid model from the sidebar first."
	case errors.Is(err, apperrors.ErrUnknownModel):
		return "That model is not available for this key. Pick one from the list."
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return "Your session expired. Please reconnect and upload the database again."
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Type {
		case llm.ErrorTypeAuth:
			return "Connection Failed. Check Key."
		case llm.ErrorTypeEndpoint:
			return "Connection Failed. The provider could not be reached."
		case llm.ErrorTypeQuota:
			return guidance(GenerationQuotaExhausted, llmErr.Model, err)
		case llm.ErrorTypeModel:
			return guidance(GenerationModelUnavailable, llmErr.Model, err)
		}
	}

	if apperrors.IsValidation(err) {
		return "Error: " + logging.SanitizeError(err)
	}
	return "Technical Error: " + causeText(err)
}
