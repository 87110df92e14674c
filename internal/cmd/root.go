// Package cmd implements the gofirehose command line.
package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/3leaps/gofirehose/internal/config"
	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/preflight"
)

// Version information, set by main from build flags.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "unknown",
	BuildDate: "unknown",
}

// SetVersionInfo sets build metadata reported by the version command.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var appIdentity *config.AppIdentity

// GetAppIdentity returns the identity resolved by the last config load, or nil.
func GetAppIdentity() *config.AppIdentity {
	return appIdentity
}

// app carries the global flags and collaborators shared by every command of
// one root.
type app struct {
	region     string
	profile    string
	endpoint   string
	selectExpr string
	format     string
	configPath string
	force      bool
	readOnly   bool
	verbose    bool

	cfg *config.Config

	stdin      io.Reader
	isTerminal func() bool
	newClient  func(ctx context.Context, cfg firehose.Config) (*firehose.Client, error)

	newPreflightClients func(ctx context.Context, cfg firehose.Config) (preflight.S3API, preflight.KinesisAPI, error)
}

func newApp() *app {
	return &app{
		stdin:      os.Stdin,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		newClient:  firehose.New,

		newPreflightClients: newPreflightClients,
	}
}

var rootCmd = newRootCmd(newApp())

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gofirehose",
		Short: "Manage Amazon Data Firehose delivery streams",
		Long: `gofirehose creates, inspects, and deletes delivery streams and writes
records to them.

Every command sends exactly the parameters you give it: options left unset are
omitted from the request rather than sent as empty values. Results are written
to stdout as JSONL records (gofirehose.result.v1 / gofirehose.error.v1); logs go
to stderr.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.region, "region", "r", "", "AWS region")
	pf.StringVarP(&a.profile, "profile", "p", "", "AWS shared config profile")
	pf.StringVar(&a.endpoint, "endpoint", "", "Custom endpoint URL (LocalStack, moto)")
	pf.StringVar(&a.selectExpr, "select", "", "Result projection: '*', a field path (e.g. DeliveryStreamARN), or ^Param to echo an input")
	pf.StringVarP(&a.format, "output", "o", "", "Output format: jsonl or json")
	pf.BoolVar(&a.force, "force", false, "Skip confirmation prompts")
	pf.BoolVar(&a.readOnly, "readonly", false, "Refuse every command that changes remote state")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/gofirehose/config.yaml)")

	root.AddCommand(
		newStreamCmd(a),
		newTagCmd(a),
		newRecordCmd(a),
		newEncryptionCmd(a),
		newPreflightCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration with changed persistent flags as overrides and
// initializes logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.SetConfigFile(a.configPath)

	flags := cmd.Flags()
	aws := map[string]any{}
	if flags.Changed("region") {
		aws["region"] = a.region
	}
	if flags.Changed("profile") {
		aws["profile"] = a.profile
	}
	if flags.Changed("endpoint") {
		aws["endpoint"] = a.endpoint
	}
	overrides := map[string]any{"aws": aws}
	if flags.Changed("output") {
		overrides["output"] = map[string]any{"format": a.format}
	}
	if flags.Changed("readonly") {
		overrides["readonly"] = a.readOnly
	}

	cfg, err := config.Load(cmd.Context(), overrides)
	if err != nil {
		return exitError(exitInvalidArgument, "Invalid configuration", err)
	}
	a.cfg = cfg
	appIdentity = config.Identity()

	observability.ConfigureCLILogger(observability.LoggerOptions{
		Name:    appIdentity.BinaryName,
		Profile: cfg.Logging.Profile,
		Level:   cfg.Logging.Level,
		Verbose: a.verbose,
	})
	observability.CLILogger.Debug("Configuration loaded",
		zap.String("region", cfg.AWS.Region),
		zap.String("endpoint", cfg.AWS.Endpoint),
		zap.Bool("readonly", cfg.ReadOnly))
	return nil
}

// IsReadOnly reports whether mutating commands are refused.
func (a *app) IsReadOnly() bool {
	if a.cfg != nil {
		return a.cfg.ReadOnly
	}
	return a.readOnly
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	observability.Sync()
	if err == nil {
		return
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		ExitWithCode(observability.CLILogger, ee.Code, ee.Message, ee.Err)
	}
	ExitWithCode(observability.CLILogger, exitInvalidArgument, "Command failed", err)
}
