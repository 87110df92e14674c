package materialize

import (
	"context"
	"strings"
)

// Operation performs one remote call with a materialized request.
type Operation[Req, Res any] func(ctx context.Context, req *Req) (Res, error)

// Projector selects what part of a remote result to surface.
type Projector[Res, T any] func(Res) T

// InvokeOption configures Invoke.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	endpoint string
}

// WithEndpoint sets the endpoint description appended to connectivity failures.
func WithEndpoint(desc string) InvokeOption {
	return func(o *invokeOptions) { o.endpoint = desc }
}

// Invoke calls op exactly once with req and normalizes the result.
//
// There is no retry here; retry belongs to the SDK. A cancelled ctx makes the
// pending call fail, which surfaces as a Failure like any other error.
func Invoke[Req, Res, T any](ctx context.Context, req *Req, op Operation[Req, Res], project Projector[Res, T], opts ...InvokeOption) Outcome[T] {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := op(ctx, req)
	if err != nil {
		return Failure[T](enrich(err, o.endpoint))
	}
	return Success(project(res))
}

// Requirement records whether a required input was supplied.
type Requirement struct {
	Name    string
	Present bool

	// Reason overrides the default "is required" message.
	Reason string
}

// Required marks an input as mandatory.
func Required[V any](name string, v Optional[V]) Requirement {
	return Requirement{Name: name, Present: v.Present()}
}

// RequiredString marks a string input as mandatory and non-blank.
func RequiredString(name string, v Optional[string]) Requirement {
	s, ok := v.Get()
	return Requirement{Name: name, Present: ok && strings.TrimSpace(s) != ""}
}

// RequiredWith marks dep as mandatory whenever v is present. The requirement is
// reported against name, the input that cannot be honoured alone.
func RequiredWith[V, D any](name string, v Optional[V], depName string, dep Optional[D]) Requirement {
	return Requirement{
		Name:    name,
		Present: !v.Present() || dep.Present(),
		Reason:  "requires " + depName,
	}
}

// Invocation is the per-operation configuration consumed by BuildAndInvoke.
type Invocation[Req, Res any] struct {
	// Name identifies the remote operation (e.g., "CreateDeliveryStream").
	Name string

	// Bindings populate the request, in order.
	Bindings []Binding[Req]

	// Requires lists inputs that must be present before the call is made.
	Requires []Requirement

	// Operation is the remote call.
	Operation Operation[Req, Res]

	// Endpoint describes the active endpoint configuration for error enrichment.
	Endpoint string
}

// Validate checks the invocation for configuration errors.
func (inv Invocation[Req, Res]) Validate() error {
	if inv.Operation == nil {
		return &ConfigError{Name: inv.label(), Reason: "operation is required"}
	}
	for _, r := range inv.Requires {
		if !r.Present {
			reason := r.Reason
			if reason == "" {
				reason = "is required"
			}
			return &ConfigError{Name: r.Name, Reason: reason}
		}
	}
	return nil
}

func (inv Invocation[Req, Res]) label() string {
	if inv.Name == "" {
		return "invocation"
	}
	return inv.Name
}

// BuildAndInvoke validates inv, materializes its request, and invokes its operation.
//
// The returned error is non-nil only for configuration errors, in which case the
// remote operation is never called. Remote failures are reported in the Outcome.
func BuildAndInvoke[Req, Res, T any](ctx context.Context, inv Invocation[Req, Res], project Projector[Res, T]) (Outcome[T], error) {
	if err := inv.Validate(); err != nil {
		return Outcome[T]{}, err
	}
	if project == nil {
		return Outcome[T]{}, &ConfigError{Name: inv.label(), Reason: "projector is required"}
	}

	req := Materialize(inv.Bindings...)
	return Invoke(ctx, req, inv.Operation, project, WithEndpoint(inv.Endpoint)), nil
}
