//go:build cloudintegration

package firehose_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	fhsdk "github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/test/cloudtest"
)

// str unwraps a selected string field, which the SDK models as *string.
func str(t *testing.T, v any) string {
	t.Helper()
	switch s := v.(type) {
	case string:
		return s
	case *string:
		return aws.ToString(s)
	}
	t.Fatalf("expected string, got %T", v)
	return ""
}

func createS3Stream(t *testing.T, ctx context.Context, c *firehose.Client) (name, bucket string) {
	t.Helper()

	bucket = cloudtest.CreateBucket(t, ctx)
	name = cloudtest.StreamName(t)

	var p firehose.CreateParams
	p.Name = m.Some(name)
	p.Type = m.Some("DirectPut")
	p.ExtendedS3.BucketARN = m.Some(cloudtest.BucketARN(bucket))
	p.ExtendedS3.RoleARN = m.Some("arn:aws:iam::123456789012:role/firehose")
	p.Tags = m.Some(map[string]string{"team": "data"})

	out, err := c.CreateDeliveryStream(ctx, p, "")
	require.NoError(t, err)
	arn, err := out.Result()
	require.NoError(t, err)
	assert.Contains(t, str(t, arn), name)

	t.Cleanup(func() {
		_, _ = c.DeleteDeliveryStream(context.Background(), firehose.DeleteParams{Name: m.Some(name)}, "")
	})
	return name, bucket
}

func TestClient_CreateDescribeDelete(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	c := cloudtest.FirehoseClientT(t, ctx)

	name, _ := createS3Stream(t, ctx, c)

	out, err := c.DescribeDeliveryStream(ctx, firehose.DescribeParams{Name: m.Some(name)}, "DeliveryStreamDescription.DeliveryStreamName")
	require.NoError(t, err)
	got, err := out.Result()
	require.NoError(t, err)
	assert.Equal(t, name, str(t, got))

	out, err = c.ListDeliveryStreams(ctx, firehose.ListParams{}, "")
	require.NoError(t, err)
	names, err := out.Result()
	require.NoError(t, err)
	assert.Contains(t, names, name)

	out, err = c.DeleteDeliveryStream(ctx, firehose.DeleteParams{Name: m.Some(name)}, "")
	require.NoError(t, err)
	echoed, err := out.Result()
	require.NoError(t, err)
	assert.Equal(t, name, echoed)

	out, err = c.DescribeDeliveryStream(ctx, firehose.DescribeParams{Name: m.Some(name)}, "")
	require.NoError(t, err)
	_, err = out.Result()
	require.Error(t, err)
	assert.True(t, firehose.IsNotFound(err))
}

func TestClient_CreateDuplicateIsResourceInUse(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	c := cloudtest.FirehoseClientT(t, ctx)

	name, bucket := createS3Stream(t, ctx, c)

	var p firehose.CreateParams
	p.Name = m.Some(name)
	p.ExtendedS3.BucketARN = m.Some(cloudtest.BucketARN(bucket))
	p.ExtendedS3.RoleARN = m.Some("arn:aws:iam::123456789012:role/firehose")

	out, err := c.CreateDeliveryStream(ctx, p, "")
	require.NoError(t, err)
	_, err = out.Result()
	require.Error(t, err)
	assert.True(t, firehose.IsResourceInUse(err))
}

func TestClient_PutRecordAndBatch(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	c := cloudtest.FirehoseClientT(t, ctx)

	name, bucket := createS3Stream(t, ctx, c)

	out, err := c.PutRecord(ctx, firehose.PutRecordParams{Name: m.Some(name), Data: m.Some([]byte("one\n"))}, "")
	require.NoError(t, err)
	id, err := out.Result()
	require.NoError(t, err)
	assert.NotEmpty(t, str(t, id))

	out, err = c.PutRecordBatch(ctx, firehose.PutRecordBatchParams{
		Name:    m.Some(name),
		Records: m.Some([][]byte{[]byte("two\n"), []byte("three\n")}),
	}, "")
	require.NoError(t, err)
	v, err := out.Result()
	require.NoError(t, err)
	batch, ok := v.(*fhsdk.PutRecordBatchOutput)
	require.True(t, ok)
	assert.Zero(t, firehose.FailedPutCount(batch))
	assert.Len(t, batch.RequestResponses, 2)

	// moto delivers to the destination bucket synchronously.
	assert.Positive(t, cloudtest.CountObjects(t, ctx, bucket))
}

func TestClient_Tags(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()
	c := cloudtest.FirehoseClientT(t, ctx)

	name, _ := createS3Stream(t, ctx, c)

	out, err := c.TagDeliveryStream(ctx, firehose.TagParams{
		Name: m.Some(name),
		Tags: m.Some(map[string]string{"env": "test"}),
	}, "")
	require.NoError(t, err)
	_, err = out.Result()
	require.NoError(t, err)

	out, err = c.ListTagsForDeliveryStream(ctx, firehose.ListTagsParams{Name: m.Some(name)}, "")
	require.NoError(t, err)
	tags, err := out.Result()
	require.NoError(t, err)
	assert.NotEmpty(t, tags)

	out, err = c.UntagDeliveryStream(ctx, firehose.UntagParams{Name: m.Some(name), TagKeys: m.Some([]string{"env"})}, "")
	require.NoError(t, err)
	_, err = out.Result()
	require.NoError(t, err)
}
