package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/payload"
)

func newRecordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Write records to a delivery stream",
	}
	cmd.AddCommand(newRecordPutCmd(a), newRecordPutBatchCmd(a))
	return cmd
}

func newRecordPutCmd(a *app) *cobra.Command {
	var text, b64, file string

	cmd := &cobra.Command{
		Use:   "put <name> (--text s | --base64 s | --file path)",
		Short: "Write one record",
		Long: `Write one record.

The record data comes from exactly one of --text, --base64, or --file. Use
--file - to read standard input. Data is sent as given; no delimiter is added.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := recordSource(cmd, text, b64, file, a.stdin)
			if err != nil {
				return err
			}
			if err := a.requireWritable("record put"); err != nil {
				return err
			}
			return a.runRecordPut(cmd, args[0], src)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Record data as text")
	cmd.Flags().StringVar(&b64, "base64", "", "Record data as base64")
	cmd.Flags().StringVar(&file, "file", "", "Read record data from a file ('-' for stdin)")
	cmd.MarkFlagsMutuallyExclusive("text", "base64", "file")
	return cmd
}

func recordSource(cmd *cobra.Command, text, b64, file string, stdin io.Reader) (payload.Source, error) {
	flags := cmd.Flags()
	switch {
	case flags.Changed("text"):
		return payload.Text(text), nil
	case flags.Changed("base64"):
		return payload.Base64(b64), nil
	case flags.Changed("file"):
		src := payload.File(file)
		if src.Kind == payload.KindStdin {
			src.Stdin = stdin
		}
		return src, nil
	default:
		return payload.Source{}, exitError(exitInvalidArgument, "No record data",
			&m.ConfigError{Name: "Record.Data", Reason: "is required (use --text, --base64, or --file)"})
	}
}

func (a *app) runRecordPut(cmd *cobra.Command, name string, src payload.Source) error {
	ctx := cmd.Context()

	body, err := payload.Open(ctx, src)
	if err != nil {
		return payloadError(err)
	}
	defer func() { _ = body.Close() }()

	data, err := payload.ReadAll(ctx, body)
	if err != nil {
		return payloadError(err)
	}

	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	observability.CLILogger.Debug("Record read",
		zap.String("source", body.Label()),
		zap.Int("bytes", len(data)))

	out, cfgErr := s.client.PutRecord(ctx, firehose.PutRecordParams{
		Name: m.Some(name),
		Data: m.Some(data),
	}, s.sel)
	return s.emit(ctx, "PutRecord", name, out, cfgErr)
}

func payloadError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return exitError(exitSignalInt, "Cancelled while reading record data", err)
	case payload.IsTooLarge(err):
		return exitError(exitInvalidArgument, "Record too large", err)
	case errors.Is(err, os.ErrNotExist), errors.Is(err, payload.ErrNoMatch):
		return exitError(exitFileNotFound, "Record data not found", err)
	default:
		var lerr *payload.LineError
		if errors.As(err, &lerr) {
			return exitError(exitInvalidArgument, "Invalid record line", err)
		}
		return exitError(exitFileReadError, "Failed to read record data", err)
	}
}

type batchOptions struct {
	files      []string
	decoding   string
	newline    bool
	maxRecords int
	maxBytes   int
	rate       float64
}

func newRecordPutBatchCmd(a *app) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "put-batch <name> --file pattern...",
		Short: "Write newline-delimited records in batches",
		Long: `Write newline-delimited records in batches.

Each non-blank line of the input files is one record. Records are split into
PutRecordBatch calls of at most --max-batch-records records and --max-batch-bytes
bytes, sent one after another and optionally paced with --rate (calls per second).

A summary record is written at the end. Records the service reports as failed
are counted there and make the command exit non-zero.

Examples:
  gofirehose record put-batch events --file 'data/**/*.jsonl' --newline
  cat events.b64 | gofirehose record put-batch events --file - --decode base64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWritable("record put-batch"); err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-batch-records") {
				opts.maxRecords = a.cfg.Batch.MaxRecords
			}
			if !cmd.Flags().Changed("max-batch-bytes") {
				opts.maxBytes = a.cfg.Batch.MaxBytes
			}
			if !cmd.Flags().Changed("rate") {
				opts.rate = a.cfg.Batch.Rate
			}
			return a.runPutBatch(cmd, args[0], opts)
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVar(&opts.files, "file", nil, "Input file or glob pattern, '-' for stdin (repeatable)")
	fs.StringVar(&opts.decoding, "decode", string(payload.DecodeRaw), "Line decoding: raw, json, or base64")
	fs.BoolVar(&opts.newline, "newline", false, "Append a newline to every record")
	fs.IntVar(&opts.maxRecords, "max-batch-records", payload.MaxBatchRecords, "Maximum records per call")
	fs.IntVar(&opts.maxBytes, "max-batch-bytes", payload.MaxBatchBytes, "Maximum bytes per call")
	fs.Float64Var(&opts.rate, "rate", 0, "Maximum calls per second (0 = unlimited)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) runPutBatch(cmd *cobra.Command, name string, opts batchOptions) error {
	ctx := cmd.Context()

	dec, err := payload.ParseDecoding(opts.decoding)
	if err != nil {
		return exitError(exitInvalidArgument, "Invalid --decode value", err)
	}
	if opts.rate < 0 {
		return exitError(exitInvalidArgument, "Invalid --rate value", fmt.Errorf("rate must not be negative"))
	}

	files, err := payload.Expand(opts.files)
	if err != nil {
		return payloadError(err)
	}

	var delim []byte
	if opts.newline {
		delim = []byte("\n")
	}

	var records [][]byte
	for _, f := range files {
		recs, err := readRecordFile(ctx, f, a.stdin, payload.LineOptions{Decoding: dec, Delimiter: delim, Label: f})
		if err != nil {
			return payloadError(err)
		}
		records = append(records, recs...)
	}
	if len(records) == 0 {
		return exitError(exitInvalidArgument, "No records to send",
			&m.ConfigError{Name: "Records", Reason: "input contains no non-blank lines"})
	}

	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	limit := rate.Inf
	if opts.rate > 0 {
		limit = rate.Limit(opts.rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	chunks := payload.Chunk(records, opts.maxRecords, opts.maxBytes)
	observability.CLILogger.Debug("Sending batches",
		zap.Int("records", len(records)),
		zap.Int("batches", len(chunks)),
		zap.Strings("files", files))

	start := time.Now()
	summary := &output.SummaryRecord{Files: files}
	finish := func() {
		summary.Duration = time.Since(start)
		summary.DurationHuman = summary.Duration.Round(time.Millisecond).String()
		_ = s.w.WriteSummary(context.WithoutCancel(ctx), summary)
	}

	for _, chunk := range chunks {
		if err := limiter.Wait(ctx); err != nil {
			finish()
			return exitError(exitSignalInt, "Batch cancelled", err)
		}

		out, cfgErr := s.client.PutRecordBatch(ctx, firehose.PutRecordBatchParams{
			Name:    m.Some(name),
			Records: m.Some(chunk),
		}, s.sel)
		summary.Batches++
		summary.Records += len(chunk)
		summary.Bytes += payload.Size(chunk)
		if v, ok := out.Value(); ok {
			summary.FailedRecords += firehose.FailedPutCount(v)
		}

		if err := s.emit(ctx, "PutRecordBatch", name, out, cfgErr); err != nil {
			finish()
			return err
		}
	}
	finish()

	if summary.FailedRecords > 0 {
		return exitError(exitExternalServiceUnavailable, "Some records were rejected",
			fmt.Errorf("%d of %d records failed", summary.FailedRecords, summary.Records))
	}
	return nil
}

func readRecordFile(ctx context.Context, path string, stdin io.Reader, opts payload.LineOptions) ([][]byte, error) {
	if path == "-" {
		opts.Label = "stdin"
		return payload.ReadLines(ctx, stdin, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return payload.ReadLines(ctx, f, opts)
}
