package firehose

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// Default projectors for record operations.
const (
	DefaultPutRecordSelect = "RecordId"
	DefaultPutBatchSelect  = m.SelectAll
)

// PutRecordParams are the inputs of PutRecord.
//
// Data is read by the caller from a payload source owned by this invocation.
type PutRecordParams struct {
	Name m.Optional[string]
	Data m.Optional[[]byte]
}

// PutRecord writes one record to a delivery stream.
func (c *Client) PutRecord(ctx context.Context, p PutRecordParams, sel string) (m.Outcome[any], error) {
	type in = firehose.PutRecordInput

	if sel == "" {
		sel = DefaultPutRecordSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.PutRecordOutput]{
		Name: "PutRecord",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Group("Record", func(r *in, rec *types.Record) { r.Record = rec },
				m.Field("Data", p.Data, func(rec *types.Record, v []byte) { rec.Data = v }),
			),
		},
		Requires: []m.Requirement{
			m.RequiredString("DeliveryStreamName", p.Name),
			m.Required("Record.Data", p.Data),
		},
		Operation: call(c, "PutRecord", c.api.PutRecord),
	}, sel, map[string]any{"DeliveryStreamName": echoValue(p.Name)})
}

// PutRecordBatchParams are the inputs of PutRecordBatch.
//
// Records are forwarded unchanged. Count and size limits are enforced by the
// service, not here.
type PutRecordBatchParams struct {
	Name    m.Optional[string]
	Records m.Optional[[][]byte]
}

// PutRecordBatch writes a batch of records to a delivery stream.
//
// A successful call may still report per-record failures in FailedPutCount.
func (c *Client) PutRecordBatch(ctx context.Context, p PutRecordBatchParams, sel string) (m.Outcome[any], error) {
	type in = firehose.PutRecordBatchInput

	if sel == "" {
		sel = DefaultPutBatchSelect
	}
	return run(ctx, c, m.Invocation[in, *firehose.PutRecordBatchOutput]{
		Name: "PutRecordBatch",
		Bindings: []m.Binding[in]{
			m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
			m.Field("Records", m.MapOptional(p.Records, recordList), func(r *in, v []types.Record) { r.Records = v }),
		},
		Requires: []m.Requirement{
			m.RequiredString("DeliveryStreamName", p.Name),
			m.Required("Records", p.Records),
		},
		Operation: call(c, "PutRecordBatch", c.api.PutRecordBatch),
	}, sel, map[string]any{"DeliveryStreamName": echoValue(p.Name)})
}

func recordList(data [][]byte) []types.Record {
	out := make([]types.Record, len(data))
	for i, d := range data {
		out[i] = types.Record{Data: d}
	}
	return out
}

// FailedPutCount extracts the per-record failure count from a PutRecordBatch
// result projected with the default selector.
func FailedPutCount(v any) int {
	out, ok := v.(*firehose.PutRecordBatchOutput)
	if !ok || out == nil || out.FailedPutCount == nil {
		return 0
	}
	return int(*out.FailedPutCount)
}
