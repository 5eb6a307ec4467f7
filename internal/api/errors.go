package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/localrivet/docsummary/internal/errortypes"
	"github.com/localrivet/docsummary/internal/telemetry"
)

// ErrorResponse represents the structure of error responses sent by the API
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error response codes
const (
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeNotFound         = "RESOURCE_NOT_FOUND"
	ErrorCodeUnsupported      = "UNSUPPORTED_MEDIA_TYPE"
	ErrorCodePermission       = "PERMISSION_ERROR"
	ErrorCodeTooLarge         = "REQUEST_TOO_LARGE"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeBadGateway       = "BAD_GATEWAY"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeInternalError    = "INTERNAL_ERROR"
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

const internalMessage = "An unexpected error occurred"

// classify maps an error to its HTTP status, error code and the message shown
// to clients. Messages of server-side failures are not exposed.
func classify(err error) (status int, code, message string, details map[string]interface{}) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "request body too large", nil
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorCodeTimeout, "request timed out", nil
	}

	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorCodeInternalError, internalMessage, nil
	}

	switch appErr.Type {
	case errortypes.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorCodeInvalidRequest, appErr.Message, appErr.Fields
	case errortypes.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorCodeNotFound, appErr.Message, appErr.Fields
	case errortypes.ErrorTypeUnsupported:
		return http.StatusUnsupportedMediaType, ErrorCodeUnsupported, appErr.Message, appErr.Fields
	case errortypes.ErrorTypePermission:
		return http.StatusForbidden, ErrorCodePermission, "permission denied", nil
	case errortypes.ErrorTypeNetwork, errortypes.ErrorTypeAPI, errortypes.ErrorTypeExternal:
		return http.StatusBadGateway, ErrorCodeBadGateway, "downstream service error", nil
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError, internalMessage, nil
	}
}

// writeErrorResponse writes a structured error response to the HTTP response writer
func writeErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Details: details,
	})
}

// handleError inspects err to determine the response. Server-side failures
// are logged with their full context.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := classify(err)

	if status >= http.StatusInternalServerError {
		h.metrics.IncrementCounter(telemetry.MetricHTTPErrors, 1)
		var appErr *errortypes.AppError
		if !errors.As(err, &appErr) {
			err = errortypes.InternalError(err, "request failed")
		}
		errortypes.LogError(h.logger.With("request_id", RequestID(r.Context()), "path", r.URL.Path), err)
	} else {
		h.logger.Debug("Request rejected",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}

	writeErrorResponse(w, status, code, message, details)
}
