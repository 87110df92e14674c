package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	fhsdk "github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/output"
)

const testStreamARN = "arn:aws:firehose:us-east-1:123456789012:deliverystream/events"

// fakeFirehose records every request. Methods not overridden panic through the
// nil embedded interface.
type fakeFirehose struct {
	firehose.API

	mu    sync.Mutex
	calls []string
	err   error

	failedPerBatch int32
	names          []string

	create *fhsdk.CreateDeliveryStreamInput
	del    *fhsdk.DeleteDeliveryStreamInput
	tag    *fhsdk.TagDeliveryStreamInput
	untag  *fhsdk.UntagDeliveryStreamInput
	start  *fhsdk.StartDeliveryStreamEncryptionInput
	put    *fhsdk.PutRecordInput
	batch  []*fhsdk.PutRecordBatchInput
}

func (f *fakeFirehose) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeFirehose) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFirehose) CreateDeliveryStream(_ context.Context, in *fhsdk.CreateDeliveryStreamInput, _ ...func(*fhsdk.Options)) (*fhsdk.CreateDeliveryStreamOutput, error) {
	f.create = in
	if err := f.record("CreateDeliveryStream"); err != nil {
		return nil, err
	}
	return &fhsdk.CreateDeliveryStreamOutput{DeliveryStreamARN: aws.String(testStreamARN)}, nil
}

func (f *fakeFirehose) DeleteDeliveryStream(_ context.Context, in *fhsdk.DeleteDeliveryStreamInput, _ ...func(*fhsdk.Options)) (*fhsdk.DeleteDeliveryStreamOutput, error) {
	f.del = in
	if err := f.record("DeleteDeliveryStream"); err != nil {
		return nil, err
	}
	return &fhsdk.DeleteDeliveryStreamOutput{}, nil
}

func (f *fakeFirehose) DescribeDeliveryStream(_ context.Context, in *fhsdk.DescribeDeliveryStreamInput, _ ...func(*fhsdk.Options)) (*fhsdk.DescribeDeliveryStreamOutput, error) {
	if err := f.record("DescribeDeliveryStream"); err != nil {
		return nil, err
	}
	return &fhsdk.DescribeDeliveryStreamOutput{}, nil
}

func (f *fakeFirehose) ListDeliveryStreams(_ context.Context, _ *fhsdk.ListDeliveryStreamsInput, _ ...func(*fhsdk.Options)) (*fhsdk.ListDeliveryStreamsOutput, error) {
	if err := f.record("ListDeliveryStreams"); err != nil {
		return nil, err
	}
	return &fhsdk.ListDeliveryStreamsOutput{
		DeliveryStreamNames:    f.names,
		HasMoreDeliveryStreams: aws.Bool(false),
	}, nil
}

func (f *fakeFirehose) TagDeliveryStream(_ context.Context, in *fhsdk.TagDeliveryStreamInput, _ ...func(*fhsdk.Options)) (*fhsdk.TagDeliveryStreamOutput, error) {
	f.tag = in
	if err := f.record("TagDeliveryStream"); err != nil {
		return nil, err
	}
	return &fhsdk.TagDeliveryStreamOutput{}, nil
}

func (f *fakeFirehose) UntagDeliveryStream(_ context.Context, in *fhsdk.UntagDeliveryStreamInput, _ ...func(*fhsdk.Options)) (*fhsdk.UntagDeliveryStreamOutput, error) {
	f.untag = in
	if err := f.record("UntagDeliveryStream"); err != nil {
		return nil, err
	}
	return &fhsdk.UntagDeliveryStreamOutput{}, nil
}

func (f *fakeFirehose) StartDeliveryStreamEncryption(_ context.Context, in *fhsdk.StartDeliveryStreamEncryptionInput, _ ...func(*fhsdk.Options)) (*fhsdk.StartDeliveryStreamEncryptionOutput, error) {
	f.start = in
	if err := f.record("StartDeliveryStreamEncryption"); err != nil {
		return nil, err
	}
	return &fhsdk.StartDeliveryStreamEncryptionOutput{}, nil
}

func (f *fakeFirehose) StopDeliveryStreamEncryption(_ context.Context, _ *fhsdk.StopDeliveryStreamEncryptionInput, _ ...func(*fhsdk.Options)) (*fhsdk.StopDeliveryStreamEncryptionOutput, error) {
	if err := f.record("StopDeliveryStreamEncryption"); err != nil {
		return nil, err
	}
	return &fhsdk.StopDeliveryStreamEncryptionOutput{}, nil
}

func (f *fakeFirehose) PutRecord(_ context.Context, in *fhsdk.PutRecordInput, _ ...func(*fhsdk.Options)) (*fhsdk.PutRecordOutput, error) {
	f.put = in
	if err := f.record("PutRecord"); err != nil {
		return nil, err
	}
	return &fhsdk.PutRecordOutput{RecordId: aws.String("rec-1"), Encrypted: aws.Bool(false)}, nil
}

func (f *fakeFirehose) PutRecordBatch(_ context.Context, in *fhsdk.PutRecordBatchInput, _ ...func(*fhsdk.Options)) (*fhsdk.PutRecordBatchOutput, error) {
	f.batch = append(f.batch, in)
	if err := f.record("PutRecordBatch"); err != nil {
		return nil, err
	}
	return &fhsdk.PutRecordBatchOutput{FailedPutCount: aws.Int32(f.failedPerBatch)}, nil
}

// harness runs one root command against a fake API with isolated config.
type harness struct {
	api    *fakeFirehose
	app    *app
	root   *cobra.Command
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GOFIREHOSE_READONLY", "")
	t.Setenv("GOFIREHOSE_OUTPUT", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "testing")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "testing")
	t.Setenv("AWS_REGION", "us-east-1")

	api := &fakeFirehose{}
	a := newApp()
	a.stdin = strings.NewReader("")
	a.isTerminal = func() bool { return false }
	a.newClient = func(_ context.Context, cfg firehose.Config) (*firehose.Client, error) {
		return firehose.NewWithAPI(api, cfg), nil
	}

	h := &harness{
		api:    api,
		app:    a,
		root:   newRootCmd(a),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.root.SetOut(h.stdout)
	h.root.SetErr(h.stderr)
	return h
}

func (h *harness) run(args ...string) error {
	return h.runContext(context.Background(), args...)
}

func (h *harness) runContext(ctx context.Context, args ...string) error {
	h.root.SetArgs(args)
	return h.root.ExecuteContext(ctx)
}

// records parses the JSONL written to stdout.
func (h *harness) records(t *testing.T) []output.Record {
	t.Helper()
	var recs []output.Record
	sc := bufio.NewScanner(bytes.NewReader(h.stdout.Bytes()))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var rec output.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), "line: %s", sc.Text())
		recs = append(recs, rec)
	}
	require.NoError(t, sc.Err())
	return recs
}

// only returns the single record of type typ.
func only[T any](t *testing.T, recs []output.Record, typ string) T {
	t.Helper()
	var out T
	found := 0
	for _, r := range recs {
		if r.Type == typ {
			found++
			require.NoError(t, json.Unmarshal(r.Data, &out))
		}
	}
	require.Equal(t, 1, found, "expected one %s record in %v", typ, recs)
	return out
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *ExitError
	require.True(t, errors.As(err, &ee), "expected *ExitError, got %T: %v", err, err)
	return ee.Code
}
