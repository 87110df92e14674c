package firehose

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// Default projectors for delivery-stream management operations.
const (
	DefaultDeleteSelect   = "^DeliveryStreamName"
	DefaultDescribeSelect = "DeliveryStreamDescription"
	DefaultListSelect     = "DeliveryStreamNames"
)

// DeleteParams are the inputs of DeleteDeliveryStream.
type DeleteParams struct {
	Name             m.Optional[string]
	AllowForceDelete m.Optional[bool]
}

// DeleteDeliveryStream deletes a delivery stream.
func (c *Client) DeleteDeliveryStream(ctx context.Context, p DeleteParams, sel string) (m.Outcome[any], error) {
	type in = firehose.DeleteDeliveryStreamInput

	if sel == "" {
		sel = DefaultDeleteSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.DeleteDeliveryStreamOutput]{
		Name: "DeleteDeliveryStream",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("AllowForceDelete", p.AllowForceDelete, func(r *in, v bool) { r.AllowForceDelete = aws.Bool(v) }),
		},
		Requires:  []m.Requirement{m.RequiredString("DeliveryStreamName", p.Name)},
		Operation: call(c, "DeleteDeliveryStream", c.api.DeleteDeliveryStream),
	}, sel, map[string]any{
		"DeliveryStreamName": echoValue(p.Name),
		"AllowForceDelete":   echoValue(p.AllowForceDelete),
	})
}

// DescribeParams are the inputs of DescribeDeliveryStream.
type DescribeParams struct {
	Name                        m.Optional[string]
	Limit                       m.Optional[int32]
	ExclusiveStartDestinationID m.Optional[string]
}

// DescribeDeliveryStream describes a delivery stream and its destinations.
func (c *Client) DescribeDeliveryStream(ctx context.Context, p DescribeParams, sel string) (m.Outcome[any], error) {
	type in = firehose.DescribeDeliveryStreamInput

	if sel == "" {
		sel = DefaultDescribeSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.DescribeDeliveryStreamOutput]{
		Name: "DescribeDeliveryStream",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("Limit", p.Limit, func(r *in, v int32) { r.Limit = aws.Int32(v) }),
			m.Field("ExclusiveStartDestinationId", p.ExclusiveStartDestinationID, func(r *in, v string) { r.ExclusiveStartDestinationId = aws.String(v) }),
		},
		Requires:  []m.Requirement{m.RequiredString("DeliveryStreamName", p.Name)},
		Operation: call(c, "DescribeDeliveryStream", c.api.DescribeDeliveryStream),
	}, sel, map[string]any{"DeliveryStreamName": echoValue(p.Name)})
}

// ListParams are the inputs of ListDeliveryStreams.
type ListParams struct {
	Type                 m.Optional[string]
	Limit                m.Optional[int32]
	ExclusiveStartStream m.Optional[string]
}

// ListDeliveryStreams lists delivery stream names.
func (c *Client) ListDeliveryStreams(ctx context.Context, p ListParams, sel string) (m.Outcome[any], error) {
	type in = firehose.ListDeliveryStreamsInput

	if sel == "" {
		sel = DefaultListSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.ListDeliveryStreamsOutput]{
		Name: "ListDeliveryStreams",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamType", p.Type, func(r *in, v string) { r.DeliveryStreamType = types.DeliveryStreamType(v) }),
			m.Field("Limit", p.Limit, func(r *in, v int32) { r.Limit = aws.Int32(v) }),
			m.Field("ExclusiveStartDeliveryStreamName", p.ExclusiveStartStream, func(r *in, v string) { r.ExclusiveStartDeliveryStreamName = aws.String(v) }),
		},
		Operation: call(c, "ListDeliveryStreams", c.api.ListDeliveryStreams),
	}, sel, map[string]any{"DeliveryStreamType": echoValue(p.Type)})
}
