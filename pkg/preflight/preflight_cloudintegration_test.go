//go:build cloudintegration

package preflight_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/preflight"
	"github.com/3leaps/gofirehose/test/cloudtest"
)

func TestPreflight_ReadSafe_Moto(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()

	bucket := cloudtest.CreateBucket(t, ctx)
	streamARN := cloudtest.CreateKinesisStream(t, ctx)

	s3c, kin, err := preflight.NewClients(ctx, cloudtest.FirehoseConfig())
	require.NoError(t, err)

	var p firehose.CreateParams
	p.Name = m.Some("events")
	p.ExtendedS3.BucketARN = m.Some(cloudtest.BucketARN(bucket))
	p.ExtendedS3.Backup.BucketARN = m.Some(cloudtest.BucketARN(bucket + "-missing"))
	p.KinesisSource.StreamARN = m.Some(streamARN)

	rec, err := preflight.Run(ctx, preflight.ModeReadSafe, preflight.ForCreate(p, s3c, kin)...)
	require.Error(t, err)
	assert.ErrorIs(t, err, preflight.ErrCheckFailed)
	require.Len(t, rec.Results, 3)

	assert.True(t, rec.Results[0].Allowed, "existing bucket")
	assert.False(t, rec.Results[1].Allowed, "missing backup bucket")
	assert.Equal(t, output.ErrCodeNotFound, rec.Results[1].ErrorCode)
	assert.True(t, rec.Results[2].Allowed, "existing source stream")
}
