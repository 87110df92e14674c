package firehose

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
)

// Sentinel errors for delivery-stream operations.
var (
	// ErrNotFound indicates the delivery stream or a referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrResourceInUse indicates the resource is already in use (e.g., the name exists).
	ErrResourceInUse = errors.New("resource in use")

	// ErrLimitExceeded indicates an account or stream limit was reached.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidArgument indicates the service rejected the request parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidKMSResource indicates the KMS key could not be used.
	ErrInvalidKMSResource = errors.New("invalid kms resource")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrConcurrentModification indicates a conflicting concurrent update.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrThrottled indicates the request was rate limited.
	ErrThrottled = errors.New("request throttled")
)

// ServiceError attaches a classification to a remote failure.
//
// Error returns the original message unchanged; the classification is only
// reachable through errors.Is.
type ServiceError struct {
	// Op is the operation that failed (e.g., "CreateDeliveryStream").
	Op string

	// Kind is one of the sentinel errors above.
	Kind error

	// Err is the original failure.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes both the classification and the original failure.
func (e *ServiceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify maps smithy API error codes onto sentinel errors.
// Unknown codes and non-API errors are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	var kind error
	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException":
		kind = ErrNotFound
	case "ResourceInUseException":
		kind = ErrResourceInUse
	case "LimitExceededException":
		kind = ErrLimitExceeded
	case "InvalidArgumentException", "InvalidSourceException", "ValidationException":
		kind = ErrInvalidArgument
	case "InvalidKMSResourceException":
		kind = ErrInvalidKMSResource
	case "ServiceUnavailableException", "InternalFailure":
		kind = ErrServiceUnavailable
	case "ConcurrentModificationException":
		kind = ErrConcurrentModification
	case "AccessDeniedException":
		kind = ErrAccessDenied
	case "UnrecognizedClientException", "InvalidSignatureException", "ExpiredTokenException", "MissingAuthenticationTokenException":
		kind = ErrInvalidCredentials
	case "ThrottlingException", "TooManyRequestsException":
		kind = ErrThrottled
	default:
		return err
	}

	return &ServiceError{Op: op, Kind: kind, Err: err}
}

// ErrorCode maps an error to an output error code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case materialize.IsConfigError(err), isClientConfigError(err):
		return output.ErrCodeInvalidConfig
	case materialize.IsEndpointError(err), materialize.IsNetworkError(err):
		return output.ErrCodeProviderUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return output.ErrCodeTimeout
	case IsNotFound(err):
		return output.ErrCodeNotFound
	case IsResourceInUse(err):
		return output.ErrCodeResourceInUse
	case IsLimitExceeded(err):
		return output.ErrCodeLimitExceeded
	case IsInvalidArgument(err):
		return output.ErrCodeInvalidArgument
	case errors.Is(err, ErrInvalidKMSResource):
		return output.ErrCodeInvalidKMSResource
	case IsServiceUnavailable(err):
		return output.ErrCodeProviderUnavailable
	case errors.Is(err, ErrConcurrentModification):
		return output.ErrCodeConcurrentModification
	case IsAccessDenied(err):
		return output.ErrCodeAccessDenied
	case errors.Is(err, ErrInvalidCredentials):
		return output.ErrCodeInvalidCredentials
	case IsThrottled(err):
		return output.ErrCodeThrottled
	default:
		return output.ErrCodeInternal
	}
}

func isClientConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsResourceInUse returns true if the error indicates the resource is in use.
func IsResourceInUse(err error) bool {
	return errors.Is(err, ErrResourceInUse)
}

// IsLimitExceeded returns true if the error indicates a limit was reached.
func IsLimitExceeded(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}

// IsInvalidArgument returns true if the service rejected the request parameters.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsServiceUnavailable returns true if the service is temporarily unavailable.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsThrottled returns true if the error indicates the request was rate limited.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}
