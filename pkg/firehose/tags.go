package firehose

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// Default projectors for tag operations.
const (
	DefaultTagSelect      = "^DeliveryStreamName"
	DefaultUntagSelect    = "^DeliveryStreamName"
	DefaultListTagsSelect = "Tags"
)

// TagParams are the inputs of TagDeliveryStream.
type TagParams struct {
	Name m.Optional[string]
	Tags m.Optional[map[string]string]
}

// TagDeliveryStream adds or updates tags on a delivery stream.
func (c *Client) TagDeliveryStream(ctx context.Context, p TagParams, sel string) (m.Outcome[any], error) {
	type in = firehose.TagDeliveryStreamInput

	if sel == "" {
		sel = DefaultTagSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.TagDeliveryStreamOutput]{
		Name: "TagDeliveryStream",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("Tags", m.MapOptional(p.Tags, tagList), func(r *in, v []types.Tag) { r.Tags = v }),
		},
		Requires: []m.Requirement{
			m.RequiredString("DeliveryStreamName", p.Name),
			m.Required("Tags", p.Tags),
		},
		Operation: call(c, "TagDeliveryStream", c.api.TagDeliveryStream),
	}, sel, map[string]any{
		"DeliveryStreamName": echoValue(p.Name),
		"Tags":               echoValue(p.Tags),
	})
}

// UntagParams are the inputs of UntagDeliveryStream.
type UntagParams struct {
	Name    m.Optional[string]
	TagKeys m.Optional[[]string]
}

// UntagDeliveryStream removes tags from a delivery stream.
func (c *Client) UntagDeliveryStream(ctx context.Context, p UntagParams, sel string) (m.Outcome[any], error) {
	type in = firehose.UntagDeliveryStreamInput

	if sel == "" {
		sel = DefaultUntagSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.UntagDeliveryStreamOutput]{
		Name: "UntagDeliveryStream",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("TagKeys", p.TagKeys, func(r *in, v []string) { r.TagKeys = v }),
		},
		Requires: []m.Requirement{
			m.RequiredString("DeliveryStreamName", p.Name),
			m.Required("TagKeys", p.TagKeys),
		},
		Operation: call(c, "UntagDeliveryStream", c.api.UntagDeliveryStream),
	}, sel, map[string]any{
		"DeliveryStreamName": echoValue(p.Name),
		"TagKeys":            echoValue(p.TagKeys),
	})
}

// ListTagsParams are the inputs of ListTagsForDeliveryStream.
type ListTagsParams struct {
	Name                 m.Optional[string]
	Limit                m.Optional[int32]
	ExclusiveStartTagKey m.Optional[string]
}

// ListTagsForDeliveryStream lists the tags of a delivery stream.
func (c *Client) ListTagsForDeliveryStream(ctx context.Context, p ListTagsParams, sel string) (m.Outcome[any], error) {
	type in = firehose.ListTagsForDeliveryStreamInput

	if sel == "" {
		sel = DefaultListTagsSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.ListTagsForDeliveryStreamOutput]{
		Name: "ListTagsForDeliveryStream",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("Limit", p.Limit, func(r *in, v int32) { r.Limit = aws.Int32(v) }),
			m.Field("ExclusiveStartTagKey", p.ExclusiveStartTagKey, func(r *in, v string) { r.ExclusiveStartTagKey = aws.String(v) }),
		},
		Requires:  []m.Requirement{m.RequiredString("DeliveryStreamName", p.Name)},
		Operation: call(c, "ListTagsForDeliveryStream", c.api.ListTagsForDeliveryStream),
	}, sel, map[string]any{"DeliveryStreamName": echoValue(p.Name)})
}
