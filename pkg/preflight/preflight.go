// Package preflight runs non-mutating checks before a delivery stream is created.
//
// Firehose accepts a create request whose destination bucket or source stream does
// not exist, and the stream later fails asynchronously. Preflight surfaces those
// problems up front as a PreflightRecord.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/output"
)

// Mode defines how aggressive preflight checks are.
type Mode string

const (
	// ModePlanOnly lists the checks without calling anything.
	ModePlanOnly Mode = "plan-only"

	// ModeReadSafe runs read-only checks.
	ModeReadSafe Mode = "read-safe"
)

// ParseMode validates a mode name. Empty means ModeReadSafe.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReadSafe:
		return ModeReadSafe, nil
	case ModePlanOnly:
		return ModePlanOnly, nil
	default:
		return "", fmt.Errorf("unknown preflight mode %q (expected %s or %s)", s, ModePlanOnly, ModeReadSafe)
	}
}

// Capability names are stable strings used in JSONL output.
const (
	CapDestinationBucket = "destination.bucket"
	CapBackupBucket      = "backup.bucket"
	CapSourceStream      = "source.stream"
)

// S3API is the subset of the S3 client used for bucket checks.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// KinesisAPI is the subset of the Kinesis client used for source stream checks.
type KinesisAPI interface {
	DescribeStreamSummary(ctx context.Context, params *kinesis.DescribeStreamSummaryInput, optFns ...func(*kinesis.Options)) (*kinesis.DescribeStreamSummaryOutput, error)
}

var (
	_ S3API      = (*s3.Client)(nil)
	_ KinesisAPI = (*kinesis.Client)(nil)
)

// Check is one preflight check.
type Check struct {
	Capability string
	Method     string
	Target     string
	Run        func(ctx context.Context) error
}

// ErrCheckFailed is wrapped by the error Run returns when a check is denied.
var ErrCheckFailed = errors.New("preflight check failed")

// Run executes checks in order and records each result.
//
// Every check runs even after a failure so the record is complete. The returned
// error wraps ErrCheckFailed and the first failure.
func Run(ctx context.Context, mode Mode, checks ...Check) (*output.PreflightRecord, error) {
	rec := &output.PreflightRecord{
		Mode:    string(mode),
		Results: []output.PreflightCheckResult{},
	}

	if mode == ModePlanOnly {
		for _, c := range checks {
			rec.Results = append(rec.Results, output.PreflightCheckResult{
				Capability: c.Capability,
				Allowed:    true,
				Method:     c.Method,
				Target:     c.Target,
				Detail:     "not executed (plan-only)",
			})
		}
		return rec, nil
	}

	var first error
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		res := output.PreflightCheckResult{
			Capability: c.Capability,
			Allowed:    true,
			Method:     c.Method,
			Target:     c.Target,
		}
		if err := c.Run(ctx); err != nil {
			res.Allowed = false
			res.ErrorCode = normalizeErrorCode(err)
			res.Detail = err.Error()
			if first == nil {
				first = fmt.Errorf("%w: %s %s: %w", ErrCheckFailed, c.Capability, c.Target, err)
			}
		}
		rec.Results = append(rec.Results, res)
	}
	return rec, first
}

// BucketCheck returns a HeadBucket check for the bucket named by bucketARN.
func BucketCheck(api S3API, capability, bucketARN string) Check {
	bucket, err := BucketName(bucketARN)
	return Check{
		Capability: capability,
		Method:     "s3:HeadBucket",
		Target:     bucketARN,
		Run: func(ctx context.Context) error {
			if err != nil {
				return err
			}
			_, herr := api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
			return herr
		},
	}
}

// SourceStreamCheck returns a DescribeStreamSummary check for a Kinesis stream ARN.
func SourceStreamCheck(api KinesisAPI, streamARN string) Check {
	return Check{
		Capability: CapSourceStream,
		Method:     "kinesis:DescribeStreamSummary",
		Target:     streamARN,
		Run: func(ctx context.Context) error {
			_, err := api.DescribeStreamSummary(ctx, &kinesis.DescribeStreamSummaryInput{StreamARN: aws.String(streamARN)})
			return err
		},
	}
}

// ARNError reports a value that is not an S3 bucket ARN.
type ARNError struct {
	ARN string
}

// Error implements the error interface.
func (e *ARNError) Error() string {
	return fmt.Sprintf("not an S3 bucket ARN: %q", e.ARN)
}

// BucketName extracts the bucket from an S3 ARN ("arn:aws:s3:::bucket"). A bare
// bucket name is returned unchanged.
func BucketName(bucketARN string) (string, error) {
	if !strings.HasPrefix(bucketARN, "arn:") {
		if bucketARN == "" {
			return "", &ARNError{ARN: bucketARN}
		}
		return bucketARN, nil
	}

	parts := strings.SplitN(bucketARN, ":", 6)
	if len(parts) != 6 || parts[2] != "s3" || parts[5] == "" || strings.Contains(parts[5], "/") {
		return "", &ARNError{ARN: bucketARN}
	}
	return parts[5], nil
}

// ForCreate derives the checks for a create request: every destination and backup
// bucket and the Kinesis source stream, when configured. The clients may be nil
// when the checks are only planned.
func ForCreate(p firehose.CreateParams, s3api S3API, kin KinesisAPI) []Check {
	var checks []Check

	addBucket := func(capability string, arn string, ok bool) {
		if ok && arn != "" {
			checks = append(checks, BucketCheck(s3api, capability, arn))
		}
	}

	arn, ok := p.ExtendedS3.BucketARN.Get()
	addBucket(CapDestinationBucket, arn, ok)
	arn, ok = p.ExtendedS3.Backup.BucketARN.Get()
	addBucket(CapBackupBucket, arn, ok)
	arn, ok = p.HTTPEndpoint.S3.BucketARN.Get()
	addBucket(CapBackupBucket, arn, ok)
	arn, ok = p.Splunk.S3.BucketARN.Get()
	addBucket(CapBackupBucket, arn, ok)

	if arn, ok := p.KinesisSource.StreamARN.Get(); ok && arn != "" {
		checks = append(checks, SourceStreamCheck(kin, arn))
	}
	return checks
}

// NewClients builds S3 and Kinesis clients sharing the Firehose client's
// configuration. A custom endpoint is applied to both, with path-style S3.
func NewClients(ctx context.Context, cfg firehose.Config) (*s3.Client, *kinesis.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	awsCfg, err := firehose.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	s3c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	kc := kinesis.NewFromConfig(awsCfg, func(o *kinesis.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return s3c, kc, nil
}

func normalizeErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "ResourceNotFoundException":
			return output.ErrCodeNotFound
		case "Forbidden", "AccessDenied", "AccessDeniedException":
			return output.ErrCodeAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "UnrecognizedClientException", "ExpiredTokenException":
			return output.ErrCodeInvalidCredentials
		case "SlowDown", "Throttling", "ThrottlingException", "LimitExceededException":
			return output.ErrCodeThrottled
		}
	}
	var arnErr *ARNError
	if errors.As(err, &arnErr) {
		return output.ErrCodeInvalidArgument
	}
	return firehose.ErrorCode(err)
}
