package cmd

import (
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"go.uber.org/zap"
)

// Process exit codes.
var (
	exitInvalidArgument            = int(foundry.ExitInvalidArgument)
	exitExternalServiceUnavailable = int(foundry.ExitExternalServiceUnavailable)
	exitFileNotFound               = int(foundry.ExitFileNotFound)
	exitFileReadError              = int(foundry.ExitFileReadError)
	exitFileWriteError             = int(foundry.ExitFileWriteError)
	exitSignalInt                  = int(foundry.ExitSignalInt)
)

// ExitError carries the exit code for a failed command up to Execute.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitError(code int, msg string, err error) error {
	return &ExitError{Code: code, Message: msg, Err: err}
}

// ExitWithCode logs msg and err and terminates the process.
func ExitWithCode(logger *zap.Logger, code int, msg string, err error) {
	if err != nil {
		logger.Error(msg, zap.Error(err), zap.Int("exit_code", code))
	} else {
		logger.Error(msg, zap.Int("exit_code", code))
	}
	_ = logger.Sync()
	os.Exit(code)
}
