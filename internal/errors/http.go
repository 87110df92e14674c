package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/payload"
)

// HTTP-only error codes. Delivery-stream codes come from pkg/output.
const (
	CodeReadOnly         = "READONLY"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error *gferrors.ErrorEnvelope `json:"error"`
}

var statusByCode = map[string]int{
	output.ErrCodeInvalidConfig:          http.StatusBadRequest,
	output.ErrCodeInvalidArgument:        http.StatusBadRequest,
	output.ErrCodeInvalidKMSResource:     http.StatusBadRequest,
	CodeBadRequest:                       http.StatusBadRequest,
	output.ErrCodeInvalidCredentials:     http.StatusUnauthorized,
	output.ErrCodeAccessDenied:           http.StatusForbidden,
	CodeReadOnly:                         http.StatusForbidden,
	output.ErrCodeNotFound:               http.StatusNotFound,
	CodeMethodNotAllowed:                 http.StatusMethodNotAllowed,
	output.ErrCodeResourceInUse:          http.StatusConflict,
	output.ErrCodeConcurrentModification: http.StatusConflict,
	CodePayloadTooLarge:                  http.StatusRequestEntityTooLarge,
	output.ErrCodeLimitExceeded:          http.StatusTooManyRequests,
	output.ErrCodeThrottled:              http.StatusTooManyRequests,
	output.ErrCodeProviderUnavailable:    http.StatusBadGateway,
	CodeUnavailable:                      http.StatusServiceUnavailable,
	output.ErrCodeTimeout:                http.StatusGatewayTimeout,
	output.ErrCodeInternal:               http.StatusInternalServerError,
	CodeInternalError:                    http.StatusInternalServerError,
}

// StatusForCode returns the HTTP status for an error code. Unknown codes map to 500.
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable code for err.
func Code(err error) string {
	var ae *AppError
	errors.As(err, &ae)
	if ae != nil && ae.Code != "" {
		return ae.Code
	}
	if payload.IsTooLarge(err) {
		return CodePayloadTooLarge
	}
	code := firehose.ErrorCode(err)
	if code != output.ErrCodeInternal || ae == nil {
		return code
	}
	switch ae.Category {
	case CategoryValidation:
		return CodeBadRequest
	case CategoryConfig:
		return output.ErrCodeInvalidConfig
	case CategoryExternalService:
		return output.ErrCodeProviderUnavailable
	}
	return code
}

// NewEnvelope builds the error envelope for a failed request, carrying its
// correlation ID and path.
func NewEnvelope(r *http.Request, code, message string) *gferrors.ErrorEnvelope {
	return gferrors.NewErrorEnvelope(code, message).
		WithCorrelationID(CorrelationID(r.Context())).
		WithPath(r.URL.Path)
}

// RespondWithError writes err as an ErrorResponse with the status of its code.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := Code(err)
	WriteEnvelope(w, StatusForCode(code), NewEnvelope(r, code, err.Error()))
}

// WriteEnvelope writes envelope with the given status.
func WriteEnvelope(w http.ResponseWriter, status int, envelope *gferrors.ErrorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: envelope})
}
