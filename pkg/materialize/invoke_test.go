package materialize

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"

	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	ARN    *string
	Status string
	Nested *struct {
		Count int
	}
}

func nameBinding(name Optional[string]) Binding[request] {
	return Field("Name", name, func(r *request, v string) { r.Name = &v })
}

// countingOp records how many times the remote call was made.
type countingOp struct {
	calls atomic.Int32
	res   *result
	err   error
}

func (c *countingOp) call(ctx context.Context, req *request) (*result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.res, nil
}

func TestInvoke_CallsOnceOnSuccess(t *testing.T) {
	arn := "arn:aws:firehose:us-east-1:123456789012:deliverystream/s"
	op := &countingOp{res: &result{ARN: &arn, Status: "CREATING"}}

	out := Invoke(context.Background(), &request{}, op.call, Identity[*result]())

	assert.Equal(t, int32(1), op.calls.Load())
	assert.True(t, out.Succeeded())
	assert.False(t, out.Failed())
	assert.Equal(t, StateCompleted, out.State())
	v, ok := out.Value()
	require.True(t, ok)
	assert.Same(t, op.res, v)
	assert.NoError(t, out.Err())
}

func TestInvoke_CallsOnceOnFailure(t *testing.T) {
	op := &countingOp{err: errors.New("ResourceInUseException: stream exists")}

	out := Invoke(context.Background(), &request{}, op.call, Identity[*result]())

	assert.Equal(t, int32(1), op.calls.Load(), "no internal retry")
	assert.True(t, out.Failed())
	assert.False(t, out.Succeeded())
	_, ok := out.Value()
	assert.False(t, ok)
	assert.Same(t, op.err, out.Err(), "non-network errors pass through unchanged")
	assert.Equal(t, "ResourceInUseException: stream exists", out.Err().Error())
}

func TestInvoke_EndpointEnrichment(t *testing.T) {
	const endpoint = "endpoint=https://firehose.invalid.example region=eu-west-9"

	tests := []struct {
		name     string
		err      error
		enriched bool
	}{
		{
			name:     "dns failure",
			err:      &net.DNSError{Err: "no such host", Name: "firehose.invalid.example", IsNotFound: true},
			enriched: true,
		},
		{
			name:     "dial failure",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			enriched: true,
		},
		{
			name:     "sdk send failure",
			err:      &smithyhttp.RequestSendError{Err: io.ErrUnexpectedEOF},
			enriched: true,
		},
		{
			name:     "wrapped dns failure",
			err:      wrapOp(&net.DNSError{Err: "no such host", Name: "h"}),
			enriched: true,
		},
		{
			name:     "service error",
			err:      errors.New("LimitExceededException: too many streams"),
			enriched: false,
		},
		{
			name:     "cancellation",
			err:      context.Canceled,
			enriched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &countingOp{err: tt.err}
			out := Invoke(context.Background(), &request{}, op.call, Identity[*result](), WithEndpoint(endpoint))

			require.True(t, out.Failed())
			if tt.enriched {
				assert.True(t, IsEndpointError(out.Err()))
				assert.Contains(t, out.Err().Error(), endpoint)
				assert.Contains(t, out.Err().Error(), tt.err.Error())
				assert.ErrorIs(t, out.Err(), tt.err)
			} else {
				assert.False(t, IsEndpointError(out.Err()))
				assert.Equal(t, tt.err.Error(), out.Err().Error())
			}
		})
	}
}

type opError struct{ err error }

func (e *opError) Error() string { return "operation error Firehose: PutRecord, " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func wrapOp(err error) error { return &opError{err: err} }

func TestInvoke_EnrichmentWithoutEndpoint(t *testing.T) {
	op := &countingOp{err: &net.DNSError{Err: "no such host", Name: "h"}}
	out := Invoke(context.Background(), &request{}, op.call, Identity[*result]())
	require.True(t, out.Failed())
	assert.Contains(t, out.Err().Error(), defaultEndpointDescription)
}

func TestInvoke_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func(ctx context.Context, req *request) (*result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	out := Invoke(ctx, &request{}, op, Identity[*result]())
	require.True(t, out.Failed())
	assert.Equal(t, StateCompleted, out.State())
	assert.ErrorIs(t, out.Err(), context.Canceled)
	assert.False(t, IsEndpointError(out.Err()))
}

func TestBuildAndInvoke(t *testing.T) {
	t.Run("echo projector returns input name", func(t *testing.T) {
		op := &countingOp{res: &result{}}
		name := Some("test-stream")
		project, err := Select[*result]("^DeliveryStreamName", map[string]any{"DeliveryStreamName": "test-stream"})
		require.NoError(t, err)

		out, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Name:      "CreateDeliveryStream",
			Bindings:  []Binding[request]{nameBinding(name)},
			Requires:  []Requirement{RequiredString("DeliveryStreamName", name)},
			Operation: op.call,
		}, project)
		require.NoError(t, err)

		v, ok := out.Value()
		require.True(t, ok)
		assert.Equal(t, "test-stream", v)
		assert.Equal(t, int32(1), op.calls.Load())
	})

	t.Run("missing required input never calls", func(t *testing.T) {
		op := &countingOp{res: &result{}}
		out, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Name:      "DeleteDeliveryStream",
			Requires:  []Requirement{RequiredString("DeliveryStreamName", Some("  "))},
			Operation: op.call,
		}, Identity[*result]())

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "DeliveryStreamName")
		assert.Equal(t, StatePending, out.State())
		assert.Equal(t, int32(0), op.calls.Load())
	})

	t.Run("dependent input missing never calls", func(t *testing.T) {
		op := &countingOp{res: &result{}}
		_, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Name: "CreateDeliveryStream",
			Requires: []Requirement{
				RequiredWith("Processing.NumberOfRetries", Some(int32(3)), "LambdaArn", None[string]()),
			},
			Operation: op.call,
		}, Identity[*result]())

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "Processing.NumberOfRetries: requires LambdaArn")
		assert.Equal(t, int32(0), op.calls.Load())
	})

	t.Run("dependent input absent is satisfied", func(t *testing.T) {
		op := &countingOp{res: &result{}}
		_, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Name: "CreateDeliveryStream",
			Requires: []Requirement{
				RequiredWith("Processing.NumberOfRetries", None[int32](), "LambdaArn", None[string]()),
			},
			Operation: op.call,
		}, Identity[*result]())

		require.NoError(t, err)
		assert.Equal(t, int32(1), op.calls.Load())
	})

	t.Run("nil operation", func(t *testing.T) {
		_, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{Name: "X"}, Identity[*result]())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operation is required")
	})

	t.Run("nil projector", func(t *testing.T) {
		op := &countingOp{res: &result{}}
		_, err := BuildAndInvoke[request, *result, any](context.Background(), Invocation[request, *result]{Operation: op.call}, nil)
		require.Error(t, err)
		assert.Equal(t, int32(0), op.calls.Load())
	})

	t.Run("request passed to operation is materialized", func(t *testing.T) {
		var seen *request
		op := func(ctx context.Context, req *request) (*result, error) {
			seen = req
			return &result{}, nil
		}
		_, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Bindings:  []Binding[request]{nameBinding(Some("n")), destinationBindings(destinationInput{})},
			Operation: op,
		}, Identity[*result]())
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, "n", *seen.Name)
		assert.Nil(t, seen.Destination)
	})

	t.Run("batch of 500 is forwarded unchanged", func(t *testing.T) {
		tags := make([]string, 500)
		for i := range tags {
			tags[i] = "r"
		}
		var got int
		op := func(ctx context.Context, req *request) (*result, error) {
			got = len(req.Tags)
			return &result{}, nil
		}
		out, err := BuildAndInvoke(context.Background(), Invocation[request, *result]{
			Bindings:  []Binding[request]{Field("Tags", FromSlice(tags), func(r *request, v []string) { r.Tags = v })},
			Operation: op,
		}, Identity[*result]())
		require.NoError(t, err)
		assert.True(t, out.Succeeded())
		assert.Equal(t, 500, got)
	})
}

func TestOutcome(t *testing.T) {
	t.Run("failure with nil error still fails", func(t *testing.T) {
		out := Failure[int](nil)
		assert.True(t, out.Failed())
		assert.Error(t, out.Err())
	})

	t.Run("result pair", func(t *testing.T) {
		v, err := Success(3).Result()
		assert.NoError(t, err)
		assert.Equal(t, 3, v)

		_, err = Failure[int](assert.AnError).Result()
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("map", func(t *testing.T) {
		doubled := Map(Success(2), func(n int) int { return n * 2 })
		v, _ := doubled.Value()
		assert.Equal(t, 4, v)

		failed := Map(Failure[int](assert.AnError), func(n int) int { return n * 2 })
		assert.ErrorIs(t, failed.Err(), assert.AnError)

		pending := Map(Outcome[int]{}, func(n int) int { return n })
		assert.Equal(t, StatePending, pending.State())
	})

	t.Run("exclusive", func(t *testing.T) {
		for _, out := range []Outcome[int]{Success(1), Failure[int](assert.AnError)} {
			assert.NotEqual(t, out.Succeeded(), out.Failed())
		}
	})
}
