package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorType classifies a provider failure by what the operator must change.
type ErrorType string

const (
	ErrorTypeNone     ErrorType = ""
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeQuota    ErrorType = "quota"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// classifyForModel classifies err and records the model it concerned.
func classifyForModel(err error, model string) *Error {
	llmErr := ClassifyError(err)
	if llmErr != nil && llmErr.Model == "" {
		llmErr.Model = model
	}
	return llmErr
}

// ClassifyError categorizes an error and returns a structured Error.
// SDK error types are inspected first for an HTTP status; message patterns
// cover transports that only surface text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.Canceled) {
		return NewError(ErrorTypeUnknown, "request canceled", false, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeEndpoint, "request timeout", true, err)
	}

	statusCode := statusCodeOf(err)
	errStr := err.Error()
	lower := strings.ToLower(errStr)

	if statusCode == 0 {
		// Network failures carry addresses whose digits must not be
		// mistaken for an HTTP status.
		if netErr := classifyTransport(err, lower); netErr != nil {
			return netErr
		}
		statusCode = statusFromText(errStr)
	}

	build := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	switch {
	// Authentication errors (not retryable)
	case statusCode == 401 || statusCode == 403 ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "api key not valid") ||
		strings.Contains(lower, "permission_denied") ||
		strings.Contains(lower, "authentication_error"):
		return build(ErrorTypeAuth, "authentication failed", false)

	// Model not found or unavailable for this key (not retryable without a model change)
	case statusCode == 404 ||
		strings.Contains(lower, "notfound") ||
		strings.Contains(lower, "not_found") ||
		(strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
			strings.Contains(lower, "does not exist") || strings.Contains(lower, "not supported"))):
		return build(ErrorTypeModel, "model not found", false)

	// Rate limiting and quota exhaustion (retryable after backoff)
	case statusCode == 429 ||
		strings.Contains(lower, "resourceexhausted") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "resource has been exhausted") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "quota"):
		return build(ErrorTypeQuota, "quota exhausted", true)

	// Connection errors (may be retryable)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return build(ErrorTypeEndpoint, "connection failed", true)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return build(ErrorTypeEndpoint, "request timeout", true)

	// 5xx and overload (retryable)
	case statusCode >= 500 ||
		strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "overloaded"):
		return build(ErrorTypeEndpoint, "server error", true)
	}

	return build(ErrorTypeUnknown, "provider error", false)
}

// statusPattern matches an HTTP status only where one is reported:
// "Error 404", "HTTP 429", "status code: 503", or a leading "401 Unauthorized".
var statusPattern = regexp.MustCompile(`(?i)(?:^|\b(?:http|error|status(?:\s+code)?|code)[\s:=]*)([1-5][0-9]{2})\b`)

func statusFromText(s string) int {
	m := statusPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

// classifyTransport recognises failures below HTTP: timeouts, refused or
// reset connections and DNS errors. All are retryable.
func classifyTransport(err error, lower string) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrorTypeEndpoint, "request timeout", true, err)
	}
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(lower, "connection refused"):
		return NewError(ErrorTypeEndpoint, "connection failed", true, err)
	case errors.Is(err, syscall.ECONNRESET), strings.Contains(lower, "connection reset"):
		return NewError(ErrorTypeEndpoint, "connection failed", true, err)
	case errors.As(err, &dnsErr), strings.Contains(lower, "no such host"):
		return NewError(ErrorTypeEndpoint, "connection failed", true, err)
	}
	return nil
}

// statusCodeOf extracts an HTTP status from the provider SDK error types.
func statusCodeOf(err error) int {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return geminiErrPtr.Code
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode
	}
	var openaiReqErr *openai.RequestError
	if errors.As(err, &openaiReqErr) {
		return openaiReqErr.HTTPStatusCode
	}

	var anthropicReqErr *anthropic.RequestError
	if errors.As(err, &anthropicReqErr) {
		return anthropicReqErr.StatusCode
	}
	var anthropicErr *anthropic.APIError
	if errors.As(err, &anthropicErr) {
		switch string(anthropicErr.Type) {
		case "authentication_error", "permission_error":
			return 401
		case "not_found_error":
			return 404
		case "rate_limit_error":
			return 429
		case "overloaded_error":
			return 529
		case "api_error":
			return 500
		}
	}
	return 0
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
