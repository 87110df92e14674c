package firehose

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/firehose"

	"github.com/3leaps/gofirehose/pkg/materialize"
)

// API is the subset of the Firehose SDK client used by this package.
type API interface {
	CreateDeliveryStream(ctx context.Context, params *firehose.CreateDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.CreateDeliveryStreamOutput, error)
	DeleteDeliveryStream(ctx context.Context, params *firehose.DeleteDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.DeleteDeliveryStreamOutput, error)
	DescribeDeliveryStream(ctx context.Context, params *firehose.DescribeDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.DescribeDeliveryStreamOutput, error)
	ListDeliveryStreams(ctx context.Context, params *firehose.ListDeliveryStreamsInput, optFns ...func(*firehose.Options)) (*firehose.ListDeliveryStreamsOutput, error)
	ListTagsForDeliveryStream(ctx context.Context, params *firehose.ListTagsForDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.ListTagsForDeliveryStreamOutput, error)
	TagDeliveryStream(ctx context.Context, params *firehose.TagDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.TagDeliveryStreamOutput, error)
	UntagDeliveryStream(ctx context.Context, params *firehose.UntagDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.UntagDeliveryStreamOutput, error)
	PutRecord(ctx context.Context, params *firehose.PutRecordInput, optFns ...func(*firehose.Options)) (*firehose.PutRecordOutput, error)
	PutRecordBatch(ctx context.Context, params *firehose.PutRecordBatchInput, optFns ...func(*firehose.Options)) (*firehose.PutRecordBatchOutput, error)
	StartDeliveryStreamEncryption(ctx context.Context, params *firehose.StartDeliveryStreamEncryptionInput, optFns ...func(*firehose.Options)) (*firehose.StartDeliveryStreamEncryptionOutput, error)
	StopDeliveryStreamEncryption(ctx context.Context, params *firehose.StopDeliveryStreamEncryptionInput, optFns ...func(*firehose.Options)) (*firehose.StopDeliveryStreamEncryptionOutput, error)
}

var _ API = (*firehose.Client)(nil)

// Client runs delivery-stream operations against one endpoint configuration.
//
// Client holds no per-invocation state and is safe for concurrent use.
type Client struct {
	api      API
	region   string
	endpoint string
	timeout  time.Duration
}

// New creates a Client backed by the SDK v2 Firehose client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*firehose.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *firehose.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Client{
		api:      firehose.NewFromConfig(awsCfg, opts...),
		region:   awsCfg.Region,
		endpoint: cfg.Endpoint,
		timeout:  cfg.RequestTimeout,
	}, nil
}

// NewWithAPI creates a Client around an existing API implementation.
func NewWithAPI(api API, cfg Config) *Client {
	return &Client{
		api:      api,
		region:   resolveRegion(cfg.Endpoint, cfg.Region),
		endpoint: cfg.Endpoint,
		timeout:  cfg.RequestTimeout,
	}
}

// LoadAWSConfig builds the AWS configuration with appropriate credentials. It is
// shared with the S3 and Kinesis clients used by preflight checks.
func LoadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)
	return awsCfg, nil
}

// Region returns the resolved region.
func (c *Client) Region() string { return c.region }

// EndpointDescription describes the endpoint configuration for error messages.
func (c *Client) EndpointDescription() string {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = "default"
	}
	region := c.region
	if region == "" {
		region = "unset"
	}
	return fmt.Sprintf("endpoint=%s region=%s", endpoint, region)
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

// call adapts an SDK method to a materializer operation. It applies the request
// timeout and classifies service errors without changing their messages.
func call[In, Out any](c *Client, op string, fn func(context.Context, *In, ...func(*firehose.Options)) (*Out, error)) materialize.Operation[In, *Out] {
	return func(ctx context.Context, in *In) (*Out, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, classify(op, err)
		}
		return out, nil
	}
}

// run compiles the selector, fills in the endpoint description, and invokes.
func run[In, Out any](ctx context.Context, c *Client, inv materialize.Invocation[In, *Out], sel string, echo map[string]any) (materialize.Outcome[any], error) {
	project, err := materialize.Select[*Out](sel, echo)
	if err != nil {
		return materialize.Outcome[any]{}, err
	}
	inv.Endpoint = c.EndpointDescription()
	return materialize.BuildAndInvoke(ctx, inv, project)
}
