package hydra

// error_response.go maps handler errors to Hydra error documents.
// the error message returned to the client is sanitized for internal errors, but the full error is logged server-side

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

// ErrorResponse is the result of mapping an error: the status code and the document to send.
type ErrorResponse struct {
	StatusCode int

	// Document is either a ConstraintViolationList (422) or an ErrorDocument
	Document any

	// Description is the message sent to the client
	Description string
}

// MapErrorToResponse maps a HydraError (or a generic error) to an ErrorResponse.
//
// Validation errors become 422 ConstraintViolationList documents; everything else is a hydra:Error.
// Errors that are not HydraErrors are treated as internal errors and logged.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var hydraErr *HydraError
	if !errors.As(err, &hydraErr) {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID),
		)
		hydraErr = &HydraError{code: ErrCodeInternal, message: "unmapped error", wrapped: err}
	}

	if hydraErr.Code() == ErrCodeValidation {
		doc := NewConstraintViolationList(hydraErr.Violations())
		return &ErrorResponse{
			StatusCode:  http.StatusUnprocessableEntity,
			Document:    doc,
			Description: doc.Description,
		}
	}

	var statusCode int
	description := hydraErr.Error()

	switch hydraErr.Code() {
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
	case ErrCodeUnauthorized:
		statusCode = http.StatusUnauthorized
		// token verification details are not returned to the client
		description = hydraErr.message
	case ErrCodeForbidden:
		statusCode = http.StatusForbidden
	case ErrCodeNotFound:
		statusCode = http.StatusNotFound
	case ErrCodeConflict:
		statusCode = http.StatusConflict
	case ErrCodeUnsupportedMedia:
		statusCode = http.StatusUnsupportedMediaType
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
	default:
		statusCode = http.StatusInternalServerError
		description = "An internal error occurred"
	}

	return &ErrorResponse{
		StatusCode: statusCode,
		Document: ErrorDocument{
			Context:     "/contexts/Error",
			Type:        "hydra:Error",
			Title:       "An error occurred",
			Description: description,
			Status:      statusCode,
			RequestID:   requestID,
		},
		Description: description,
	}
}
