// Package apierror provides the error envelopes returned to API clients.
// Internal details (store errors, stack traces) never pass through here.
package apierror

// APIError is the envelope for all 4xx/5xx responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field validation failures.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}
