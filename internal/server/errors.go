package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the error body returned by every failing endpoint.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError with the given parameters.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// errorResponse wraps an APIError in the success envelope.
type errorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// Render implements the render.Renderer interface for chi/render.
func (e *errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Error.StatusCode)
	return nil
}

func renderError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, &errorResponse{Success: false, Error: e})
}
