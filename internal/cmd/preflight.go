package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/preflight"
)

func newPreflightCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check the resources a delivery stream would reference",
		Long: `Check the resources a delivery stream would reference without creating it.

Firehose accepts a create request whose destination bucket or source stream does
not exist; the stream then fails after creation. Preflight probes those resources
with read-only calls and emits a gofirehose.preflight.v1 record.

Examples:
  # Plan-only: list the checks, no calls
  gofirehose preflight create --definition stream.yaml --mode plan-only

  # Read-safe: HeadBucket / DescribeStreamSummary on referenced resources
  gofirehose preflight create events --extended-s3-bucket-arn arn:aws:s3:::bucket`,
	}
	cmd.AddCommand(newPreflightCreateCmd(a))
	return cmd
}

func newPreflightCreateCmd(a *app) *cobra.Command {
	var (
		p          firehose.CreateParams
		definition string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Preflight checks for stream create",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadCreateParams(cmd, definition, args, &p); err != nil {
				return err
			}

			w, err := output.New(a.cfg.Output.Format, cmd.OutOrStdout(), uuid.New().String(), providerName)
			if err != nil {
				return exitError(exitInvalidArgument, "Invalid --output value", err)
			}
			defer func() { _ = w.Close() }()

			_, err = a.runCreatePreflight(cmd.Context(), w, p, mode)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&definition, "definition", "", "YAML definition file with create parameters")
	fs.StringVar(&mode, "mode", string(preflight.ModeReadSafe), "Preflight mode: plan-only or read-safe")
	bindCreateFlags(fs, &p)
	return cmd
}

// runCreatePreflight checks the resources a create would reference and writes a
// preflight record. Plan-only mode lists the checks without calling anything.
func (a *app) runCreatePreflight(ctx context.Context, w output.Writer, p firehose.CreateParams, modeFlag string) (preflight.Mode, error) {
	mode, err := preflight.ParseMode(modeFlag)
	if err != nil {
		return "", exitError(exitInvalidArgument, "Invalid preflight mode", err)
	}

	var checks []preflight.Check
	if mode == preflight.ModePlanOnly {
		checks = preflight.ForCreate(p, nil, nil)
	} else {
		s3c, kin, err := a.newPreflightClients(ctx, a.cfg.AWS.Firehose())
		if err != nil {
			return mode, exitError(exitExternalServiceUnavailable, "Failed to create preflight clients", err)
		}
		checks = preflight.ForCreate(p, s3c, kin)
	}

	observability.CLILogger.Debug("Running preflight",
		zap.String("mode", string(mode)),
		zap.Int("checks", len(checks)))

	rec, pfErr := preflight.Run(ctx, mode, checks...)
	if rec != nil {
		if err := w.WritePreflight(ctx, rec); err != nil {
			return mode, exitError(exitFileWriteError, "Failed to write preflight record", err)
		}
	}
	if pfErr != nil {
		return mode, exitError(exitExternalServiceUnavailable, "Preflight failed", pfErr)
	}
	return mode, nil
}

func newPreflightClients(ctx context.Context, cfg firehose.Config) (preflight.S3API, preflight.KinesisAPI, error) {
	s3c, kin, err := preflight.NewClients(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s3c, kin, nil
}
