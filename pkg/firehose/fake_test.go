package firehose

import (
	"context"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
)

// fakeAPI records the requests it receives. Methods not overridden here panic
// through the nil embedded interface.
type fakeAPI struct {
	API

	calls atomic.Int32
	err   error

	create   *firehose.CreateDeliveryStreamInput
	del      *firehose.DeleteDeliveryStreamInput
	describe *firehose.DescribeDeliveryStreamInput
	list     *firehose.ListDeliveryStreamsInput
	tag      *firehose.TagDeliveryStreamInput
	untag    *firehose.UntagDeliveryStreamInput
	listTags *firehose.ListTagsForDeliveryStreamInput
	put      *firehose.PutRecordInput
	batch    *firehose.PutRecordBatchInput
	start    *firehose.StartDeliveryStreamEncryptionInput
	stop     *firehose.StopDeliveryStreamEncryptionInput

	sawDeadline bool
}

const testARN = "arn:aws:firehose:us-east-1:123456789012:deliverystream/test-stream"

func (f *fakeAPI) record(ctx context.Context) error {
	f.calls.Add(1)
	_, f.sawDeadline = ctx.Deadline()
	return f.err
}

func (f *fakeAPI) CreateDeliveryStream(ctx context.Context, in *firehose.CreateDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.CreateDeliveryStreamOutput, error) {
	f.create = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.CreateDeliveryStreamOutput{DeliveryStreamARN: aws.String(testARN)}, nil
}

func (f *fakeAPI) DeleteDeliveryStream(ctx context.Context, in *firehose.DeleteDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.DeleteDeliveryStreamOutput, error) {
	f.del = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.DeleteDeliveryStreamOutput{}, nil
}

func (f *fakeAPI) DescribeDeliveryStream(ctx context.Context, in *firehose.DescribeDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.DescribeDeliveryStreamOutput, error) {
	f.describe = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.DescribeDeliveryStreamOutput{
		DeliveryStreamDescription: &types.DeliveryStreamDescription{
			DeliveryStreamName:   in.DeliveryStreamName,
			DeliveryStreamARN:    aws.String(testARN),
			DeliveryStreamStatus: types.DeliveryStreamStatus("ACTIVE"),
		},
	}, nil
}

func (f *fakeAPI) ListDeliveryStreams(ctx context.Context, in *firehose.ListDeliveryStreamsInput, _ ...func(*firehose.Options)) (*firehose.ListDeliveryStreamsOutput, error) {
	f.list = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.ListDeliveryStreamsOutput{
		DeliveryStreamNames:    []string{"clicks", "orders"},
		HasMoreDeliveryStreams: aws.Bool(false),
	}, nil
}

func (f *fakeAPI) TagDeliveryStream(ctx context.Context, in *firehose.TagDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.TagDeliveryStreamOutput, error) {
	f.tag = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.TagDeliveryStreamOutput{}, nil
}

func (f *fakeAPI) UntagDeliveryStream(ctx context.Context, in *firehose.UntagDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.UntagDeliveryStreamOutput, error) {
	f.untag = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.UntagDeliveryStreamOutput{}, nil
}

func (f *fakeAPI) ListTagsForDeliveryStream(ctx context.Context, in *firehose.ListTagsForDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.ListTagsForDeliveryStreamOutput, error) {
	f.listTags = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.ListTagsForDeliveryStreamOutput{
		Tags:        []types.Tag{{Key: aws.String("env"), Value: aws.String("dev")}},
		HasMoreTags: aws.Bool(false),
	}, nil
}

func (f *fakeAPI) PutRecord(ctx context.Context, in *firehose.PutRecordInput, _ ...func(*firehose.Options)) (*firehose.PutRecordOutput, error) {
	f.put = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.PutRecordOutput{RecordId: aws.String("rid-1"), Encrypted: aws.Bool(false)}, nil
}

func (f *fakeAPI) PutRecordBatch(ctx context.Context, in *firehose.PutRecordBatchInput, _ ...func(*firehose.Options)) (*firehose.PutRecordBatchOutput, error) {
	f.batch = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	responses := make([]types.PutRecordBatchResponseEntry, len(in.Records))
	for i := range responses {
		responses[i] = types.PutRecordBatchResponseEntry{RecordId: aws.String("rid")}
	}
	return &firehose.PutRecordBatchOutput{FailedPutCount: aws.Int32(0), RequestResponses: responses}, nil
}

func (f *fakeAPI) StartDeliveryStreamEncryption(ctx context.Context, in *firehose.StartDeliveryStreamEncryptionInput, _ ...func(*firehose.Options)) (*firehose.StartDeliveryStreamEncryptionOutput, error) {
	f.start = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.StartDeliveryStreamEncryptionOutput{}, nil
}

func (f *fakeAPI) StopDeliveryStreamEncryption(ctx context.Context, in *firehose.StopDeliveryStreamEncryptionInput, _ ...func(*firehose.Options)) (*firehose.StopDeliveryStreamEncryptionOutput, error) {
	f.stop = in
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &firehose.StopDeliveryStreamEncryptionOutput{}, nil
}

func newTestClient(api *fakeAPI) *Client {
	return NewWithAPI(api, Config{Region: "us-east-1", Endpoint: "http://localhost:4573"})
}
