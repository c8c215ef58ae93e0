// Package response writes the JSON envelopes of the storefront API.
package response

import (
	"net/http"

	deliverycontext "storefront/internal/delivery/context"
	domainerrors "storefront/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SuccessResponse defines the structure for successful responses
type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

// ErrorResponse defines the structure for error responses
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// OutcomeResponse carries a result together with the error that accompanied it,
// such as a checkout status waiting for the shopper after a declined card.
type OutcomeResponse struct {
	Data  any        `json:"data"`
	Error *ErrorInfo `json:"error,omitempty"`
	Meta  *MetaInfo  `json:"meta"`
}

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code      string `json:"code"`              // Machine-readable error code, e.g., "VALIDATION_FAILED"
	Message   string `json:"message"`           // User-friendly error message
	Details   any    `json:"details,omitempty"` // Additional error context (only for 4xx errors)
	Retryable bool   `json:"retryable"`
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID string `json:"request_id"` // Request tracking ID
}

// Success returns a successful response
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{
		Data: data,
		Meta: meta(c),
	})
}

// Error returns an error response
func Error(c echo.Context, statusCode int, errorCode string, message string, details any) error {
	return c.JSON(statusCode, ErrorResponse{
		Error: errorInfo(statusCode, errorCode, message, details, false),
		Meta:  meta(c),
	})
}

// BadRequest returns a 400 error
func BadRequest(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusBadRequest, errorCode, message, nil)
}

// BindingError returns a binding error response
func BindingError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusBadRequest, errorCode, message, nil)
}

// NotFound returns a 404 error
func NotFound(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusNotFound, errorCode, message, nil)
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, nil)
}

// HandleAppError converts domain errors to HTTP responses. Other errors are returned
// to the centralized error handler.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.HTTPCode(), ErrorResponse{
			Error: fromAppError(appErr),
			Meta:  meta(c),
		})
	}

	return errors.WithStack(err)
}

// Outcome writes data together with err. A nil err is a plain success; an AppError sets
// the status code; anything else goes to the centralized error handler.
func Outcome(c echo.Context, statusCode int, data any, err error) error {
	if err == nil {
		return Success(c, statusCode, data)
	}

	var appErr domainerrors.AppError
	if !errors.As(err, &appErr) {
		return errors.WithStack(err)
	}

	return c.JSON(appErr.HTTPCode(), OutcomeResponse{
		Data:  data,
		Error: fromAppError(appErr),
		Meta:  meta(c),
	})
}

func fromAppError(appErr domainerrors.AppError) *ErrorInfo {
	var details any
	if d := appErr.Details(); d != "" {
		details = d
	}

	return errorInfo(appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details, appErr.Retryable())
}

func errorInfo(statusCode int, errorCode, message string, details any, retryable bool) *ErrorInfo {
	// Details should not be included for 5xx errors or authentication/authorization errors
	if statusCode >= 500 || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = nil
	}

	return &ErrorInfo{
		Code:      errorCode,
		Message:   message,
		Details:   details,
		Retryable: retryable,
	}
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}
