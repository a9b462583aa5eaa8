// Package response writes the JSON envelopes of the HTTP API.
package response

import (
	"net/http"

	deliverycontext "storefront/internal/delivery/context"
	domainerrors "storefront/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// SuccessResponse wraps a successful result.
type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

// ErrorResponse wraps a failure.
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

type ErrorInfo struct {
	Code    string            `json:"code"`           // Machine-readable code, e.g. "LISTING_NOT_FOUND"
	Kind    domainerrors.Kind `json:"kind,omitempty"` // How the caller should react
	Message string            `json:"message"`
	Details any               `json:"details,omitempty"` // Only for 4xx other than 401/403
}

type MetaInfo struct {
	RequestID string `json:"request_id"`
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}

// Success writes data with statusCode.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{Data: data, Meta: meta(c)})
}

func OK(c echo.Context, data any) error {
	return Success(c, http.StatusOK, data)
}

func Created(c echo.Context, data any) error {
	return Success(c, http.StatusCreated, data)
}

// Error writes the error envelope. Details are dropped for server and auth failures.
func Error(c echo.Context, statusCode int, errorCode string, kind domainerrors.Kind, message string, details any) error {
	if statusCode >= http.StatusInternalServerError ||
		statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: &ErrorInfo{
			Code:    errorCode,
			Kind:    kind,
			Message: message,
			Details: details,
		},
		Meta: meta(c),
	})
}

// AppError renders a domain error.
func AppError(c echo.Context, err domainerrors.AppError) error {
	var details any
	if d := err.Details(); d != "" {
		details = d
	}

	return Error(c, err.HTTPCode(), err.ErrorCode(), err.Kind(), err.Message(), details)
}

// BindingError reports a request body or parameter that could not be decoded.
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, "INVALID_INPUT", domainerrors.KindValidation, message, nil)
}

func InternalServerError(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", domainerrors.KindInternal,
		"Internal server error, please try again later", nil)
}
