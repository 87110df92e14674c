package firehose

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// DefaultCreateSelect is the projector used when create is given no --select.
const DefaultCreateSelect = "DeliveryStreamARN"

// KinesisSourceParams configures a Kinesis data stream as the delivery stream source.
type KinesisSourceParams struct {
	StreamARN m.Optional[string] `yaml:"stream_arn,omitempty"`
	RoleARN   m.Optional[string] `yaml:"role_arn,omitempty"`
}

// EncryptionParams configures server-side encryption of the delivery stream itself.
type EncryptionParams struct {
	KeyType m.Optional[string] `yaml:"key_type,omitempty"`
	KeyARN  m.Optional[string] `yaml:"key_arn,omitempty"`
}

// ExtendedS3Params configures the extended S3 destination.
type ExtendedS3Params struct {
	S3Params `yaml:",inline"`

	S3BackupMode                    m.Optional[string] `yaml:"s3_backup_mode,omitempty"`
	DynamicPartitioning             m.Optional[bool]   `yaml:"dynamic_partitioning,omitempty"`
	DynamicPartitioningRetrySeconds m.Optional[int32]  `yaml:"dynamic_partitioning_retry_seconds,omitempty"`
	Processing                      ProcessingParams   `yaml:"processing,omitempty"`
	Backup                          S3Params           `yaml:"backup,omitempty"`
}

// HTTPEndpointParams configures an HTTP endpoint destination.
type HTTPEndpointParams struct {
	URL                  m.Optional[string]            `yaml:"url,omitempty"`
	Name                 m.Optional[string]            `yaml:"name,omitempty"`
	AccessKey            m.Optional[string]            `yaml:"access_key,omitempty"`
	RoleARN              m.Optional[string]            `yaml:"role_arn,omitempty"`
	S3BackupMode         m.Optional[string]            `yaml:"s3_backup_mode,omitempty"`
	ContentEncoding      m.Optional[string]            `yaml:"content_encoding,omitempty"`
	CommonAttributes     m.Optional[map[string]string] `yaml:"common_attributes,omitempty"`
	RetryDurationSeconds m.Optional[int32]             `yaml:"retry_duration_seconds,omitempty"`
	Buffering            BufferingParams               `yaml:"buffering,omitempty"`
	Logging              LoggingParams                 `yaml:"logging,omitempty"`
	Processing           ProcessingParams              `yaml:"processing,omitempty"`
	S3                   S3Params                      `yaml:"s3,omitempty"`
}

// SplunkParams configures a Splunk destination.
type SplunkParams struct {
	HECEndpoint                       m.Optional[string] `yaml:"hec_endpoint,omitempty"`
	HECEndpointType                   m.Optional[string] `yaml:"hec_endpoint_type,omitempty"`
	HECToken                          m.Optional[string] `yaml:"hec_token,omitempty"`
	HECAcknowledgmentTimeoutInSeconds m.Optional[int32]  `yaml:"hec_acknowledgment_timeout_seconds,omitempty"`
	RetryDurationSeconds              m.Optional[int32]  `yaml:"retry_duration_seconds,omitempty"`
	S3BackupMode                      m.Optional[string] `yaml:"s3_backup_mode,omitempty"`
	Logging                           LoggingParams      `yaml:"logging,omitempty"`
	Processing                        ProcessingParams   `yaml:"processing,omitempty"`
	S3                                S3Params           `yaml:"s3,omitempty"`
}

// CreateParams are the inputs of CreateDeliveryStream.
//
// The same struct is decoded from definition files and bound to command-line flags.
type CreateParams struct {
	Name          m.Optional[string]            `yaml:"name,omitempty"`
	Type          m.Optional[string]            `yaml:"type,omitempty"`
	KinesisSource KinesisSourceParams           `yaml:"kinesis_source,omitempty"`
	Encryption    EncryptionParams              `yaml:"encryption,omitempty"`
	ExtendedS3    ExtendedS3Params              `yaml:"extended_s3,omitempty"`
	HTTPEndpoint  HTTPEndpointParams            `yaml:"http_endpoint,omitempty"`
	Splunk        SplunkParams                  `yaml:"splunk,omitempty"`
	Tags          m.Optional[map[string]string] `yaml:"tags,omitempty"`
}

// Bindings returns the binding table for CreateDeliveryStreamInput.
func (p CreateParams) Bindings() []m.Binding[firehose.CreateDeliveryStreamInput] {
	type in = firehose.CreateDeliveryStreamInput

	return []m.Binding[in]{
		m.Field("DeliveryStreamName", p.Name, func(r *in, v string) { r.DeliveryStreamName = aws.String(v) }),
		m.Field("DeliveryStreamType", p.Type, func(r *in, v string) { r.DeliveryStreamType = types.DeliveryStreamType(v) }),
		m.Group("KinesisStreamSourceConfiguration",
			func(r *in, s *types.KinesisStreamSourceConfiguration) { r.KinesisStreamSourceConfiguration = s },
			m.Field("KinesisStreamARN", p.KinesisSource.StreamARN, func(s *types.KinesisStreamSourceConfiguration, v string) { s.KinesisStreamARN = aws.String(v) }),
			m.Field("RoleARN", p.KinesisSource.RoleARN, func(s *types.KinesisStreamSourceConfiguration, v string) { s.RoleARN = aws.String(v) }),
		),
		m.Group("DeliveryStreamEncryptionConfigurationInput",
			func(r *in, e *types.DeliveryStreamEncryptionConfigurationInput) { r.DeliveryStreamEncryptionConfigurationInput = e },
			m.Field("KeyType", p.Encryption.KeyType, func(e *types.DeliveryStreamEncryptionConfigurationInput, v string) { e.KeyType = types.KeyType(v) }),
			m.Field("KeyARN", p.Encryption.KeyARN, func(e *types.DeliveryStreamEncryptionConfigurationInput, v string) { e.KeyARN = aws.String(v) }),
		),
		extendedS3Group(p.ExtendedS3, func(r *in, d *types.ExtendedS3DestinationConfiguration) { r.ExtendedS3DestinationConfiguration = d }),
		httpEndpointGroup(p.HTTPEndpoint, func(r *in, d *types.HttpEndpointDestinationConfiguration) { r.HttpEndpointDestinationConfiguration = d }),
		splunkGroup(p.Splunk, func(r *in, d *types.SplunkDestinationConfiguration) { r.SplunkDestinationConfiguration = d }),
		m.Field("Tags", m.MapOptional(p.Tags, tagList), func(r *in, v []types.Tag) { r.Tags = v }),
	}
}

// Requires lists the inputs that must be present, or present together, before the
// request is sent.
func (p CreateParams) Requires() []m.Requirement {
	return []m.Requirement{
		m.RequiredString("DeliveryStreamName", p.Name),
		p.ExtendedS3.Processing.requires("ExtendedS3DestinationConfiguration"),
		p.HTTPEndpoint.Processing.requires("HttpEndpointDestinationConfiguration"),
		p.Splunk.Processing.requires("SplunkDestinationConfiguration"),
	}
}

// Echo returns the inputs addressable with ^Param selectors.
func (p CreateParams) Echo() map[string]any {
	return map[string]any{
		"DeliveryStreamName": echoValue(p.Name),
		"DeliveryStreamType": echoValue(p.Type),
	}
}

func extendedS3Group(p ExtendedS3Params, attach func(*firehose.CreateDeliveryStreamInput, *types.ExtendedS3DestinationConfiguration)) m.Binding[firehose.CreateDeliveryStreamInput] {
	type dst = types.ExtendedS3DestinationConfiguration

	return m.Group("ExtendedS3DestinationConfiguration", attach,
		m.Field("BucketARN", p.BucketARN, func(d *dst, v string) { d.BucketARN = aws.String(v) }),
		m.Field("RoleARN", p.RoleARN, func(d *dst, v string) { d.RoleARN = aws.String(v) }),
		m.Field("Prefix", p.Prefix, func(d *dst, v string) { d.Prefix = aws.String(v) }),
		m.Field("ErrorOutputPrefix", p.ErrorOutputPrefix, func(d *dst, v string) { d.ErrorOutputPrefix = aws.String(v) }),
		m.Field("CompressionFormat", p.CompressionFormat, func(d *dst, v string) { d.CompressionFormat = types.CompressionFormat(v) }),
		m.Field("S3BackupMode", p.S3BackupMode, func(d *dst, v string) { d.S3BackupMode = types.S3BackupMode(v) }),
		bufferingGroup(p.Buffering, func(d *dst, h *types.BufferingHints) { d.BufferingHints = h }),
		loggingGroup(p.Logging, func(d *dst, o *types.CloudWatchLoggingOptions) { d.CloudWatchLoggingOptions = o }),
		encryptionGroup(p.KMSKeyARN, p.NoEncryption, func(d *dst, e *types.EncryptionConfiguration) { d.EncryptionConfiguration = e }),
		processingGroup(p.Processing, func(d *dst, c *types.ProcessingConfiguration) { d.ProcessingConfiguration = c }),
		m.Group("DynamicPartitioningConfiguration",
			func(d *dst, c *types.DynamicPartitioningConfiguration) { d.DynamicPartitioningConfiguration = c },
			m.Field("Enabled", p.DynamicPartitioning, func(c *types.DynamicPartitioningConfiguration, v bool) { c.Enabled = aws.Bool(v) }),
			m.Group("RetryOptions",
				func(c *types.DynamicPartitioningConfiguration, o *types.RetryOptions) { c.RetryOptions = o },
				m.Field("DurationInSeconds", p.DynamicPartitioningRetrySeconds, func(o *types.RetryOptions, v int32) { o.DurationInSeconds = aws.Int32(v) }),
			),
		),
		s3DestinationGroup("S3BackupConfiguration", p.Backup, func(d *dst, b *types.S3DestinationConfiguration) { d.S3BackupConfiguration = b }),
	)
}

func httpEndpointGroup(p HTTPEndpointParams, attach func(*firehose.CreateDeliveryStreamInput, *types.HttpEndpointDestinationConfiguration)) m.Binding[firehose.CreateDeliveryStreamInput] {
	type dst = types.HttpEndpointDestinationConfiguration

	attributes := m.MapOptional(p.CommonAttributes, func(attrs map[string]string) []types.HttpEndpointCommonAttribute {
		tags := tagList(attrs)
		out := make([]types.HttpEndpointCommonAttribute, 0, len(tags))
		for _, t := range tags {
			out = append(out, types.HttpEndpointCommonAttribute{AttributeName: t.Key, AttributeValue: t.Value})
		}
		return out
	})

	return m.Group("HttpEndpointDestinationConfiguration", attach,
		m.Group("EndpointConfiguration",
			func(d *dst, c *types.HttpEndpointConfiguration) { d.EndpointConfiguration = c },
			m.Field("Url", p.URL, func(c *types.HttpEndpointConfiguration, v string) { c.Url = aws.String(v) }),
			m.Field("Name", p.Name, func(c *types.HttpEndpointConfiguration, v string) { c.Name = aws.String(v) }),
			m.Field("AccessKey", p.AccessKey, func(c *types.HttpEndpointConfiguration, v string) { c.AccessKey = aws.String(v) }),
		),
		m.Field("RoleARN", p.RoleARN, func(d *dst, v string) { d.RoleARN = aws.String(v) }),
		m.Field("S3BackupMode", p.S3BackupMode, func(d *dst, v string) { d.S3BackupMode = types.HttpEndpointS3BackupMode(v) }),
		m.Group("BufferingHints",
			func(d *dst, h *types.HttpEndpointBufferingHints) { d.BufferingHints = h },
			m.Field("SizeInMBs", p.Buffering.SizeInMBs, func(h *types.HttpEndpointBufferingHints, v int32) { h.SizeInMBs = aws.Int32(v) }),
			m.Field("IntervalInSeconds", p.Buffering.IntervalInSeconds, func(h *types.HttpEndpointBufferingHints, v int32) { h.IntervalInSeconds = aws.Int32(v) }),
		),
		m.Group("RequestConfiguration",
			func(d *dst, c *types.HttpEndpointRequestConfiguration) { d.RequestConfiguration = c },
			m.Field("ContentEncoding", p.ContentEncoding, func(c *types.HttpEndpointRequestConfiguration, v string) { c.ContentEncoding = types.ContentEncoding(v) }),
			m.Field("CommonAttributes", attributes, func(c *types.HttpEndpointRequestConfiguration, v []types.HttpEndpointCommonAttribute) { c.CommonAttributes = v }),
		),
		m.Group("RetryOptions",
			func(d *dst, o *types.HttpEndpointRetryOptions) { d.RetryOptions = o },
			m.Field("DurationInSeconds", p.RetryDurationSeconds, func(o *types.HttpEndpointRetryOptions, v int32) { o.DurationInSeconds = aws.Int32(v) }),
		),
		loggingGroup(p.Logging, func(d *dst, o *types.CloudWatchLoggingOptions) { d.CloudWatchLoggingOptions = o }),
		processingGroup(p.Processing, func(d *dst, c *types.ProcessingConfiguration) { d.ProcessingConfiguration = c }),
		s3DestinationGroup("S3Configuration", p.S3, func(d *dst, s *types.S3DestinationConfiguration) { d.S3Configuration = s }),
	)
}

func splunkGroup(p SplunkParams, attach func(*firehose.CreateDeliveryStreamInput, *types.SplunkDestinationConfiguration)) m.Binding[firehose.CreateDeliveryStreamInput] {
	type dst = types.SplunkDestinationConfiguration

	return m.Group("SplunkDestinationConfiguration", attach,
		m.Field("HECEndpoint", p.HECEndpoint, func(d *dst, v string) { d.HECEndpoint = aws.String(v) }),
		m.Field("HECEndpointType", p.HECEndpointType, func(d *dst, v string) { d.HECEndpointType = types.HECEndpointType(v) }),
		m.Field("HECToken", p.HECToken, func(d *dst, v string) { d.HECToken = aws.String(v) }),
		m.Field("HECAcknowledgmentTimeoutInSeconds", p.HECAcknowledgmentTimeoutInSeconds, func(d *dst, v int32) { d.HECAcknowledgmentTimeoutInSeconds = aws.Int32(v) }),
		m.Field("S3BackupMode", p.S3BackupMode, func(d *dst, v string) { d.S3BackupMode = types.SplunkS3BackupMode(v) }),
		m.Group("RetryOptions",
			func(d *dst, o *types.SplunkRetryOptions) { d.RetryOptions = o },
			m.Field("DurationInSeconds", p.RetryDurationSeconds, func(o *types.SplunkRetryOptions, v int32) { o.DurationInSeconds = aws.Int32(v) }),
		),
		loggingGroup(p.Logging, func(d *dst, o *types.CloudWatchLoggingOptions) { d.CloudWatchLoggingOptions = o }),
		processingGroup(p.Processing, func(d *dst, c *types.ProcessingConfiguration) { d.ProcessingConfiguration = c }),
		s3DestinationGroup("S3Configuration", p.S3, func(d *dst, s *types.S3DestinationConfiguration) { d.S3Configuration = s }),
	)
}

// CreateDeliveryStream creates a delivery stream from p and projects the result with sel.
func (c *Client) CreateDeliveryStream(ctx context.Context, p CreateParams, sel string) (m.Outcome[any], error) {
	if sel == "" {
		sel = DefaultCreateSelect
	}
	return run(ctx, c, m.Invocation[firehose.CreateDeliveryStreamInput, *firehose.CreateDeliveryStreamOutput]{
		Name:      "CreateDeliveryStream",
		Bindings:  p.Bindings(),
		Requires:  p.Requires(),
		Operation: call(c, "CreateDeliveryStream", c.api.CreateDeliveryStream),
	}, sel, p.Echo())
}
