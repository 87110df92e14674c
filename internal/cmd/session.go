package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
)

const providerName = "firehose"

// session is the per-command state: one client and one output writer.
type session struct {
	client *firehose.Client
	w      output.Writer
	jobID  string
	sel    string
}

// newSession builds the client and writer for cmd.
func (a *app) newSession(cmd *cobra.Command) (*session, error) {
	jobID := uuid.New().String()
	w, err := output.New(a.cfg.Output.Format, cmd.OutOrStdout(), jobID, providerName)
	if err != nil {
		return nil, exitError(exitInvalidArgument, "Invalid --output value", err)
	}

	client, err := a.newClient(cmd.Context(), a.cfg.AWS.Firehose())
	if err != nil {
		var ce *firehose.ConfigError
		if errors.As(err, &ce) {
			return nil, exitError(exitInvalidArgument, "Invalid AWS configuration", err)
		}
		return nil, exitError(exitExternalServiceUnavailable, "Failed to create Firehose client", err)
	}

	observability.CLILogger.Debug("Session started",
		zap.String("job_id", jobID),
		zap.String("endpoint", client.EndpointDescription()))

	return &session{client: client, w: w, jobID: jobID, sel: a.selectExpr}, nil
}

func (s *session) close() {
	_ = s.w.Close()
	_ = s.client.Close()
}

// emit writes the result of one invocation.
//
// cfgErr is the configuration error returned by the materializer; the outcome is
// only inspected when it is nil.
func (s *session) emit(ctx context.Context, op, stream string, out m.Outcome[any], cfgErr error) error {
	if cfgErr != nil {
		s.writeError(ctx, op, stream, cfgErr)
		return exitError(exitInvalidArgument, fmt.Sprintf("Invalid %s request", op), cfgErr)
	}

	v, err := out.Result()
	if err != nil {
		s.writeError(ctx, op, stream, err)
		code := exitExternalServiceUnavailable
		if errors.Is(err, context.Canceled) {
			code = exitSignalInt
		}
		return exitError(code, op+" failed", errwrap.WrapExternalService(ctx, err, op))
	}

	if err := s.w.WriteResult(ctx, &output.ResultRecord{
		Operation: op,
		Stream:    stream,
		Select:    s.sel,
		Value:     v,
	}); err != nil {
		return exitError(exitFileWriteError, "Failed to write result", err)
	}
	return nil
}

func (s *session) writeError(ctx context.Context, op, stream string, err error) {
	code := firehose.ErrorCode(err)
	observability.CLILogger.Debug("Operation failed",
		zap.String("operation", op),
		zap.String("code", code),
		zap.Error(err))

	// The context may already be cancelled; the error record must still be written.
	_ = s.w.WriteError(context.WithoutCancel(ctx), &output.ErrorRecord{
		Code:      code,
		Message:   err.Error(),
		Operation: op,
		Stream:    stream,
	})
}

// requireWritable refuses action when the readonly latch is set.
func (a *app) requireWritable(action string) error {
	if !a.IsReadOnly() {
		return nil
	}
	return exitError(exitInvalidArgument, "readonly mode enabled: refusing "+action,
		errwrap.NewReadOnlyError("disable --readonly or unset GOFIREHOSE_READONLY"))
}

// logBindings logs which request fields an invocation will send.
func logBindings[R any](op string, bindings []m.Binding[R]) {
	observability.CLILogger.Debug("Invoking",
		zap.String("operation", op),
		zap.Strings("fields", m.Applied(bindings...)))
}
