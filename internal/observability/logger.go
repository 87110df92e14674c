// Package observability provides the process-wide loggers.
package observability

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging profiles.
const (
	// ProfileConsole writes human-readable lines without timestamps.
	ProfileConsole = "console"

	// ProfileStructured writes one JSON object per line.
	ProfileStructured = "structured"
)

var (
	// CLILogger is the logger used by commands. It writes to stderr so stdout
	// stays reserved for result records.
	CLILogger = zap.NewNop()

	mu sync.Mutex
)

// LoggerOptions configures a CLI logger.
type LoggerOptions struct {
	// Name is attached to every entry as the logger name.
	Name string

	// Profile selects the encoder (ProfileConsole or ProfileStructured).
	Profile string

	// Level is the minimum level (debug, info, warn, error).
	Level string

	// Verbose forces debug level regardless of Level.
	Verbose bool

	// Output receives log entries. Defaults to stderr.
	Output zapcore.WriteSyncer
}

// InitCLILogger initializes CLILogger with the console profile.
func InitCLILogger(name string, verbose bool) {
	ConfigureCLILogger(LoggerOptions{Name: name, Profile: ProfileConsole, Verbose: verbose})
}

// ConfigureCLILogger replaces CLILogger according to opts.
func ConfigureCLILogger(opts LoggerOptions) {
	logger := NewLogger(opts)

	mu.Lock()
	defer mu.Unlock()
	CLILogger = logger
}

// NewLogger builds a logger without touching CLILogger.
func NewLogger(opts LoggerOptions) *zap.Logger {
	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	switch strings.ToLower(opts.Profile) {
	case ProfileStructured:
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.NameKey = ""
		cfg.LevelKey = ""
		if opts.Verbose {
			cfg.LevelKey = "L"
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	logger := zap.New(zapcore.NewCore(enc, out, level))
	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}
	return logger
}

// ParseLevel maps a level name to a zap level. Unknown names yield info.
func ParseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Sync flushes CLILogger. Errors from syncing a terminal are ignored.
func Sync() {
	mu.Lock()
	logger := CLILogger
	mu.Unlock()
	_ = logger.Sync()
}
