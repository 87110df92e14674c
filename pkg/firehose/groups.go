package firehose

import (
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// BufferingParams configures destination buffering hints.
type BufferingParams struct {
	SizeInMBs         m.Optional[int32] `yaml:"size_in_mbs,omitempty"`
	IntervalInSeconds m.Optional[int32] `yaml:"interval_in_seconds,omitempty"`
}

// LoggingParams configures CloudWatch error logging for a destination.
type LoggingParams struct {
	Enabled       m.Optional[bool]   `yaml:"enabled,omitempty"`
	LogGroupName  m.Optional[string] `yaml:"log_group_name,omitempty"`
	LogStreamName m.Optional[string] `yaml:"log_stream_name,omitempty"`
}

// ProcessingParams configures a Lambda record transformation.
type ProcessingParams struct {
	Enabled         m.Optional[bool]   `yaml:"enabled,omitempty"`
	LambdaARN       m.Optional[string] `yaml:"lambda_arn,omitempty"`
	NumberOfRetries m.Optional[int32]  `yaml:"number_of_retries,omitempty"`
}

// S3Params configures a plain S3 destination. It is used for S3 backup and for the
// S3 configuration of HTTP endpoint and Splunk destinations.
type S3Params struct {
	BucketARN         m.Optional[string] `yaml:"bucket_arn,omitempty"`
	RoleARN           m.Optional[string] `yaml:"role_arn,omitempty"`
	Prefix            m.Optional[string] `yaml:"prefix,omitempty"`
	ErrorOutputPrefix m.Optional[string] `yaml:"error_output_prefix,omitempty"`
	CompressionFormat m.Optional[string] `yaml:"compression_format,omitempty"`
	KMSKeyARN         m.Optional[string] `yaml:"kms_key_arn,omitempty"`
	NoEncryption      m.Optional[bool]   `yaml:"no_encryption,omitempty"`
	Buffering         BufferingParams    `yaml:"buffering,omitempty"`
	Logging           LoggingParams      `yaml:"logging,omitempty"`
}

func isTrue(v bool) bool { return v }

func bufferingGroup[R any](p BufferingParams, attach func(*R, *types.BufferingHints)) m.Binding[R] {
	return m.Group("BufferingHints", attach,
		m.Field("SizeInMBs", p.SizeInMBs, func(h *types.BufferingHints, v int32) { h.SizeInMBs = aws.Int32(v) }),
		m.Field("IntervalInSeconds", p.IntervalInSeconds, func(h *types.BufferingHints, v int32) { h.IntervalInSeconds = aws.Int32(v) }),
	)
}

func loggingGroup[R any](p LoggingParams, attach func(*R, *types.CloudWatchLoggingOptions)) m.Binding[R] {
	return m.Group("CloudWatchLoggingOptions", attach,
		m.Field("Enabled", p.Enabled, func(o *types.CloudWatchLoggingOptions, v bool) { o.Enabled = aws.Bool(v) }),
		m.Field("LogGroupName", p.LogGroupName, func(o *types.CloudWatchLoggingOptions, v string) { o.LogGroupName = aws.String(v) }),
		m.Field("LogStreamName", p.LogStreamName, func(o *types.CloudWatchLoggingOptions, v string) { o.LogStreamName = aws.String(v) }),
	)
}

// encryptionGroup binds destination encryption. NoEncryption only counts when true.
func encryptionGroup[R any](kmsKeyARN m.Optional[string], noEncryption m.Optional[bool], attach func(*R, *types.EncryptionConfiguration)) m.Binding[R] {
	return m.Group("EncryptionConfiguration", attach,
		m.Group("KMSEncryptionConfig", func(e *types.EncryptionConfiguration, k *types.KMSEncryptionConfig) { e.KMSEncryptionConfig = k },
			m.Field("AWSKMSKeyARN", kmsKeyARN, func(k *types.KMSEncryptionConfig, v string) { k.AWSKMSKeyARN = aws.String(v) }),
		),
		m.Field("NoEncryptionConfig", noEncryption.Where(isTrue), func(e *types.EncryptionConfiguration, _ bool) {
			e.NoEncryptionConfig = types.NoEncryptionConfig("NoEncryption")
		}),
	)
}

// requires rejects retries without a Lambda to retry.
func (p ProcessingParams) requires(dest string) m.Requirement {
	return m.RequiredWith(dest+".ProcessingConfiguration.NumberOfRetries", p.NumberOfRetries,
		"LambdaArn", p.LambdaARN)
}

func processingGroup[R any](p ProcessingParams, attach func(*R, *types.ProcessingConfiguration)) m.Binding[R] {
	processors := m.MapOptional(p.LambdaARN, func(arn string) []types.Processor {
		params := []types.ProcessorParameter{{
			ParameterName:  types.ProcessorParameterName("LambdaArn"),
			ParameterValue: aws.String(arn),
		}}
		if n, ok := p.NumberOfRetries.Get(); ok {
			params = append(params, types.ProcessorParameter{
				ParameterName:  types.ProcessorParameterName("NumberOfRetries"),
				ParameterValue: aws.String(strconv.Itoa(int(n))),
			})
		}
		return []types.Processor{{Type: types.ProcessorType("Lambda"), Parameters: params}}
	})

	return m.Group("ProcessingConfiguration", attach,
		m.Field("Enabled", p.Enabled, func(c *types.ProcessingConfiguration, v bool) { c.Enabled = aws.Bool(v) }),
		m.Field("Processors", processors, func(c *types.ProcessingConfiguration, v []types.Processor) { c.Processors = v }),
	)
}

func s3DestinationGroup[R any](name string, p S3Params, attach func(*R, *types.S3DestinationConfiguration)) m.Binding[R] {
	return m.Group(name, attach,
		m.Field("BucketARN", p.BucketARN, func(d *types.S3DestinationConfiguration, v string) { d.BucketARN = aws.String(v) }),
		m.Field("RoleARN", p.RoleARN, func(d *types.S3DestinationConfiguration, v string) { d.RoleARN = aws.String(v) }),
		m.Field("Prefix", p.Prefix, func(d *types.S3DestinationConfiguration, v string) { d.Prefix = aws.String(v) }),
		m.Field("ErrorOutputPrefix", p.ErrorOutputPrefix, func(d *types.S3DestinationConfiguration, v string) { d.ErrorOutputPrefix = aws.String(v) }),
		m.Field("CompressionFormat", p.CompressionFormat, func(d *types.S3DestinationConfiguration, v string) { d.CompressionFormat = types.CompressionFormat(v) }),
		bufferingGroup(p.Buffering, func(d *types.S3DestinationConfiguration, h *types.BufferingHints) { d.BufferingHints = h }),
		loggingGroup(p.Logging, func(d *types.S3DestinationConfiguration, o *types.CloudWatchLoggingOptions) { d.CloudWatchLoggingOptions = o }),
		encryptionGroup(p.KMSKeyARN, p.NoEncryption, func(d *types.S3DestinationConfiguration, e *types.EncryptionConfiguration) { d.EncryptionConfiguration = e }),
	)
}

// tagList converts a tag map to SDK tags sorted by key.
func tagList(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

// echoValue returns the value for echo selectors, or nil when absent.
func echoValue[V any](o m.Optional[V]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}
