package materialize

import (
	"context"
	"errors"
	"fmt"
	"net"

	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ConfigError reports a caller configuration problem detected before any remote call:
// a missing required input, an unknown projector field, or an incomplete invocation.
type ConfigError struct {
	// Name is the binding, selector, or invocation element at fault.
	Name string

	// Reason describes the problem.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "materialize: " + e.Name + ": " + e.Reason
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// EndpointError decorates a connectivity failure with the endpoint configuration that
// was in effect, so name-resolution problems can be diagnosed from the message alone.
type EndpointError struct {
	// Endpoint describes the endpoint configuration (URL override, region).
	Endpoint string

	// Err is the original failure.
	Err error
}

// Error implements the error interface.
func (e *EndpointError) Error() string {
	return fmt.Sprintf("%v (endpoint configuration: %s)", e.Err, e.Endpoint)
}

// Unwrap returns the original failure.
func (e *EndpointError) Unwrap() error { return e.Err }

// IsEndpointError reports whether err carries endpoint context.
func IsEndpointError(err error) bool {
	var ee *EndpointError
	return errors.As(err, &ee)
}

// IsNetworkError reports whether err's chain contains a name-resolution or transport
// failure. Context cancellation and deadlines are not network errors.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	var sendErr *smithyhttp.RequestSendError
	return errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.As(err, &sendErr)
}

const defaultEndpointDescription = "default endpoint resolution"

// enrich wraps network failures with endpoint context and returns every other error
// unchanged.
func enrich(err error, endpoint string) error {
	if !IsNetworkError(err) {
		return err
	}
	if endpoint == "" {
		endpoint = defaultEndpointDescription
	}
	return &EndpointError{Endpoint: endpoint, Err: err}
}
