package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/preflight"
)

// createAliases maps deprecated create flag names to their current names.
var createAliases = m.Aliases{
	"s3-bucket-arn":      "extended-s3-bucket-arn",
	"s3-role-arn":        "extended-s3-role-arn",
	"s3-prefix":          "extended-s3-prefix",
	"s3-compression":     "extended-s3-compression-format",
	"kinesis-source-arn": "kinesis-stream-arn",
	"stream-type":        "type",
	"http-url":           "http-endpoint-url",
	"splunk-endpoint":    "splunk-hec-endpoint",
}

func newStreamCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Create, inspect, and delete delivery streams",
	}
	cmd.AddCommand(
		newStreamCreateCmd(a),
		newStreamDeleteCmd(a),
		newStreamDescribeCmd(a),
		newStreamListCmd(a),
	)
	return cmd
}

func newStreamCreateCmd(a *app) *cobra.Command {
	var (
		p             firehose.CreateParams
		definition    string
		preflightMode string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a delivery stream",
		Long: `Create a delivery stream.

Only the options you give are sent. A destination block such as buffering hints
is omitted entirely unless at least one of its options is set.

Parameters can come from a YAML definition file; flags given on the command
line override the file.

Examples:
  gofirehose stream create events --extended-s3-bucket-arn arn:aws:s3:::bucket \
    --extended-s3-role-arn arn:aws:iam::123456789012:role/firehose
  gofirehose stream create --definition stream.yaml --preflight read-safe
  gofirehose stream create events --definition stream.yaml --select '*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWritable("stream create"); err != nil {
				return err
			}
			if err := loadCreateParams(cmd, definition, args, &p); err != nil {
				return err
			}
			return a.runStreamCreate(cmd, p, preflightMode)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&definition, "definition", "", "YAML definition file with create parameters")
	fs.StringVar(&preflightMode, "preflight", "", "Check referenced resources before creating: plan-only or read-safe")
	bindCreateFlags(fs, &p)
	return cmd
}

// bindCreateFlags registers the create parameter flags on fs. Values are written
// to p by applyFlags.
func bindCreateFlags(fs *pflag.FlagSet, p *firehose.CreateParams) {
	optString(fs, &p.Type, "type", "Delivery stream type: DirectPut or KinesisStreamAsSource")
	optString(fs, &p.KinesisSource.StreamARN, "kinesis-stream-arn", "Source Kinesis stream ARN")
	optString(fs, &p.KinesisSource.RoleARN, "kinesis-role-arn", "Role used to read the source stream")
	optString(fs, &p.Encryption.KeyType, "encryption-key-type", "Stream encryption key type: AWS_OWNED_CMK or CUSTOMER_MANAGED_CMK")
	optString(fs, &p.Encryption.KeyARN, "encryption-key-arn", "Customer managed KMS key ARN for stream encryption")

	s3 := &p.ExtendedS3
	optString(fs, &s3.BucketARN, "extended-s3-bucket-arn", "Destination bucket ARN")
	optString(fs, &s3.RoleARN, "extended-s3-role-arn", "Role used to write to the bucket")
	optString(fs, &s3.Prefix, "extended-s3-prefix", "Object key prefix")
	optString(fs, &s3.ErrorOutputPrefix, "extended-s3-error-output-prefix", "Object key prefix for failed records")
	optString(fs, &s3.CompressionFormat, "extended-s3-compression-format", "UNCOMPRESSED, GZIP, ZIP, Snappy, or HADOOP_SNAPPY")
	optString(fs, &s3.KMSKeyARN, "extended-s3-kms-key-arn", "KMS key for objects written to the bucket")
	optBool(fs, &s3.NoEncryption, "extended-s3-no-encryption", "Write objects without KMS encryption")
	optInt32(fs, &s3.Buffering.SizeInMBs, "extended-s3-buffering-size", "Buffer size in MiB")
	optInt32(fs, &s3.Buffering.IntervalInSeconds, "extended-s3-buffering-interval", "Buffer interval in seconds")
	optBool(fs, &s3.Logging.Enabled, "extended-s3-logging", "Enable CloudWatch error logging")
	optString(fs, &s3.Logging.LogGroupName, "extended-s3-log-group", "CloudWatch log group")
	optString(fs, &s3.Logging.LogStreamName, "extended-s3-log-stream", "CloudWatch log stream")
	optString(fs, &s3.S3BackupMode, "extended-s3-backup-mode", "Disabled or Enabled")
	optBool(fs, &s3.DynamicPartitioning, "extended-s3-dynamic-partitioning", "Enable dynamic partitioning")
	optInt32(fs, &s3.DynamicPartitioningRetrySeconds, "extended-s3-dynamic-partitioning-retry", "Dynamic partitioning retry duration in seconds")
	optBool(fs, &s3.Processing.Enabled, "extended-s3-processing", "Enable record transformation")
	optString(fs, &s3.Processing.LambdaARN, "extended-s3-lambda-arn", "Transformation Lambda ARN")
	optInt32(fs, &s3.Processing.NumberOfRetries, "extended-s3-lambda-retries", "Transformation retries")
	optString(fs, &s3.Backup.BucketARN, "extended-s3-backup-bucket-arn", "Backup bucket ARN")
	optString(fs, &s3.Backup.RoleARN, "extended-s3-backup-role-arn", "Role used to write to the backup bucket")
	optString(fs, &s3.Backup.Prefix, "extended-s3-backup-prefix", "Backup object key prefix")

	h := &p.HTTPEndpoint
	optString(fs, &h.URL, "http-endpoint-url", "HTTP endpoint URL")
	optString(fs, &h.Name, "http-endpoint-name", "HTTP endpoint display name")
	optString(fs, &h.AccessKey, "http-endpoint-access-key", "HTTP endpoint access key")
	optString(fs, &h.RoleARN, "http-endpoint-role-arn", "Role used by the HTTP endpoint destination")
	optString(fs, &h.S3BackupMode, "http-endpoint-backup-mode", "FailedDataOnly or AllData")
	optString(fs, &h.ContentEncoding, "http-endpoint-content-encoding", "NONE or GZIP")
	optStringMap(fs, &h.CommonAttributes, "http-endpoint-attribute", "Common attribute key=value (repeatable)")
	optInt32(fs, &h.RetryDurationSeconds, "http-endpoint-retry-seconds", "Retry duration in seconds")
	optInt32(fs, &h.Buffering.SizeInMBs, "http-endpoint-buffering-size", "Buffer size in MiB")
	optInt32(fs, &h.Buffering.IntervalInSeconds, "http-endpoint-buffering-interval", "Buffer interval in seconds")
	optString(fs, &h.S3.BucketARN, "http-endpoint-s3-bucket-arn", "Backup bucket ARN")
	optString(fs, &h.S3.RoleARN, "http-endpoint-s3-role-arn", "Role used to write to the backup bucket")

	sp := &p.Splunk
	optString(fs, &sp.HECEndpoint, "splunk-hec-endpoint", "Splunk HEC endpoint")
	optString(fs, &sp.HECEndpointType, "splunk-hec-endpoint-type", "Raw or Event")
	optString(fs, &sp.HECToken, "splunk-hec-token", "Splunk HEC token")
	optInt32(fs, &sp.HECAcknowledgmentTimeoutInSeconds, "splunk-hec-ack-timeout", "HEC acknowledgment timeout in seconds")
	optInt32(fs, &sp.RetryDurationSeconds, "splunk-retry-seconds", "Retry duration in seconds")
	optString(fs, &sp.S3BackupMode, "splunk-backup-mode", "FailedEventsOnly or AllEvents")
	optString(fs, &sp.S3.BucketARN, "splunk-s3-bucket-arn", "Backup bucket ARN")
	optString(fs, &sp.S3.RoleARN, "splunk-s3-role-arn", "Role used to write to the backup bucket")

	optStringMap(fs, &p.Tags, "tag", "Tag key=value (repeatable)")

	useAliases(fs, createAliases)
}

// loadCreateParams fills p from the definition file, then changed flags, then the
// positional name.
func loadCreateParams(cmd *cobra.Command, definition string, args []string, p *firehose.CreateParams) error {
	if definition != "" {
		if err := decodeDefinition(definition, p); err != nil {
			return err
		}
	}
	applyFlags(cmd.Flags())
	if len(args) == 1 {
		p.Name = m.Some(args[0])
	}
	return nil
}

// decodeDefinition strictly decodes a YAML definition file into p.
func decodeDefinition(path string, p *firehose.CreateParams) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "Definition file not found", err)
		}
		return exitError(exitFileReadError, "Failed to open definition file", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return exitError(exitInvalidArgument, "Invalid definition file", fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

func (a *app) runStreamCreate(cmd *cobra.Command, p firehose.CreateParams, preflightMode string) error {
	ctx := cmd.Context()

	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if preflightMode != "" {
		mode, err := a.runCreatePreflight(ctx, s.w, p, preflightMode)
		if err != nil || mode == preflight.ModePlanOnly {
			return err
		}
	}

	logBindings("CreateDeliveryStream", p.Bindings())
	out, cfgErr := s.client.CreateDeliveryStream(ctx, p, s.sel)
	return s.emit(ctx, "CreateDeliveryStream", p.Name.OrElse(""), out, cfgErr)
}

func newStreamDeleteCmd(a *app) *cobra.Command {
	var p firehose.DeleteParams

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a delivery stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			if err := a.requireWritable("stream delete"); err != nil {
				return err
			}
			if ok, err := a.confirm(cmd, "delete delivery stream "+args[0]); !ok {
				return err
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.DeleteDeliveryStream(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "DeleteDeliveryStream", args[0], out, cfgErr)
		},
	}

	optBool(cmd.Flags(), &p.AllowForceDelete, "allow-force-delete", "Delete even if the stream's KMS grant cannot be retired")
	return cmd
}

func newStreamDescribeCmd(a *app) *cobra.Command {
	var p firehose.DescribeParams

	cmd := &cobra.Command{
		Use:   "describe <name>",
		Short: "Describe a delivery stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())
			p.Name = m.Some(args[0])

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.DescribeDeliveryStream(cmd.Context(), p, s.sel)
			return s.emit(cmd.Context(), "DescribeDeliveryStream", args[0], out, cfgErr)
		},
	}

	optInt32(cmd.Flags(), &p.Limit, "limit", "Maximum number of destinations to return")
	optString(cmd.Flags(), &p.ExclusiveStartDestinationID, "exclusive-start-destination-id", "Destination ID to start after")
	return cmd
}

func newStreamListCmd(a *app) *cobra.Command {
	var (
		p     firehose.ListParams
		match string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery streams",
		Long: `List delivery stream names.

--match filters the returned names with a glob (e.g. 'prod-*'). It applies to the
default selection only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd.Flags())

			if match != "" {
				if !doublestar.ValidatePattern(match) {
					return exitError(exitInvalidArgument, "Invalid --match pattern", fmt.Errorf("bad pattern %q", match))
				}
				if a.selectExpr != "" && !strings.EqualFold(a.selectExpr, firehose.DefaultListSelect) {
					return exitError(exitInvalidArgument, "--match cannot be combined with --select",
						&m.ConfigError{Name: "select", Reason: "--match filters " + firehose.DefaultListSelect + " only"})
				}
			}

			s, err := a.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out, cfgErr := s.client.ListDeliveryStreams(cmd.Context(), p, s.sel)
			if match != "" {
				out = m.Map(out, func(v any) any { return filterNames(v, match) })
			}
			return s.emit(cmd.Context(), "ListDeliveryStreams", "", out, cfgErr)
		},
	}

	optString(cmd.Flags(), &p.Type, "type", "Only list DirectPut or KinesisStreamAsSource streams")
	optInt32(cmd.Flags(), &p.Limit, "limit", "Maximum number of names to return")
	optString(cmd.Flags(), &p.ExclusiveStartStream, "exclusive-start", "Stream name to start after")
	cmd.Flags().StringVar(&match, "match", "", "Glob filter for stream names")
	return cmd
}

func filterNames(v any, pattern string) any {
	names, ok := v.([]string)
	if !ok {
		return v
	}
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if matched, _ := doublestar.Match(pattern, n); matched {
			kept = append(kept, n)
		}
	}
	observability.CLILogger.Debug("Filtered stream names",
		zap.String("match", pattern),
		zap.Int("listed", len(names)),
		zap.Int("kept", len(kept)))
	return kept
}
