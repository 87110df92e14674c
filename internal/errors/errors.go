// Package errors provides categorized application errors shared by the CLI and
// the HTTP relay.
//
// Errors keep their original message and cause. The category decides how the
// error is logged and which exit code or HTTP status it maps to.
package errors

import (
	"context"
	"errors"
)

// Category classifies an application error.
type Category string

const (
	// CategoryValidation covers bad user input detected locally.
	CategoryValidation Category = "validation"

	// CategoryConfig covers invalid or missing configuration.
	CategoryConfig Category = "config"

	// CategoryExternalService covers failures of a remote dependency.
	CategoryExternalService Category = "external_service"

	// CategoryReadOnly covers mutating requests refused by the readonly latch.
	CategoryReadOnly Category = "readonly"

	// CategoryInternal covers everything else.
	CategoryInternal Category = "internal"
)

// AppError is an error with a category and an optional machine-readable code.
type AppError struct {
	Category      Category
	Code          string
	Message       string
	CorrelationID string
	Err           error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	switch {
	case e.Message == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	default:
		return e.Message
	}
}

// Unwrap returns the cause.
func (e *AppError) Unwrap() error { return e.Err }

// ErrReadOnly is the cause of every readonly refusal.
var ErrReadOnly = errors.New("readonly mode: mutating operations are disabled")

type correlationKey struct{}

// WithCorrelationID returns a context carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation ID carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func wrap(ctx context.Context, cat Category, err error, msg string) error {
	return &AppError{
		Category:      cat,
		Message:       msg,
		CorrelationID: CorrelationID(ctx),
		Err:           err,
	}
}

// WrapInternal wraps err as an internal error.
func WrapInternal(ctx context.Context, err error, msg string) error {
	return wrap(ctx, CategoryInternal, err, msg)
}

// WrapExternalService wraps err as a remote dependency failure.
func WrapExternalService(ctx context.Context, err error, msg string) error {
	return wrap(ctx, CategoryExternalService, err, msg)
}

// WrapConfig wraps err as a configuration error.
func WrapConfig(ctx context.Context, err error, msg string) error {
	return wrap(ctx, CategoryConfig, err, msg)
}

// NewExternalServiceError creates a remote dependency failure without a cause.
func NewExternalServiceError(msg string) error {
	return &AppError{Category: CategoryExternalService, Message: msg}
}

// NewValidationError creates a validation error.
func NewValidationError(msg string) error {
	return &AppError{Category: CategoryValidation, Message: msg}
}

// NewReadOnlyError reports that action was refused by the readonly latch.
func NewReadOnlyError(action string) error {
	return &AppError{Category: CategoryReadOnly, Code: CodeReadOnly, Message: action, Err: ErrReadOnly}
}

// CategoryOf returns the category of the outermost AppError in err's chain, or
// CategoryInternal when there is none.
func CategoryOf(err error) Category {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return CategoryInternal
}

// IsReadOnly reports whether err is a readonly refusal.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
