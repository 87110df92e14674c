package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofirehose/internal/config"
	errwrap "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
)

const imdsTimeout = 2 * time.Second

// imdsRegion asks the EC2 instance metadata service for the region.
var imdsRegion = func(ctx context.Context, cfg aws.Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, imdsTimeout)
	defer cancel()

	out, err := imds.NewFromConfig(cfg).GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", err
	}
	return out.Region, nil
}

func newDoctorCmd(a *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks",
		Long: `Run diagnostic checks on the system and suggest fixes for common issues.

Examples:
  gofirehose doctor                      # Full environment check
  gofirehose doctor --provider firehose  # AWS credential, region, and endpoint checks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor(cmd, provider)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Run provider-specific checks (firehose)")
	return cmd
}

func (a *app) runDoctor(cmd *cobra.Command, provider string) error {
	switch provider {
	case "", providerName:
	default:
		return exitError(exitInvalidArgument, "Unknown provider",
			errwrap.NewValidationError(fmt.Sprintf("unsupported provider %q (expected %s)", provider, providerName)))
	}

	log := observability.CLILogger
	identity := GetAppIdentity()
	bannerName := "doctor"
	if identity != nil && identity.BinaryName != "" {
		bannerName = identity.BinaryName + " doctor"
	}
	log.Info("=== " + bannerName + " ===")
	log.Info("")
	log.Info("Running diagnostic checks...")
	log.Info("")

	allChecks := true
	checkNum := 1
	totalChecks := 5
	if provider == providerName {
		totalChecks = 8
	}

	goVersion := runtime.Version()
	if goVersion >= "go1.25" {
		log.Info(fmt.Sprintf("[%d/%d] Checking Go version... ✅ %s", checkNum, totalChecks, goVersion),
			zap.String("go_version", goVersion))
	} else {
		log.Warn(fmt.Sprintf("[%d/%d] Checking Go version... ⚠️  %s (recommended: go1.25+)", checkNum, totalChecks, goVersion),
			zap.String("go_version", goVersion))
		allChecks = false
	}
	checkNum++

	version := crucible.GetVersion()
	if version.Crucible == "" {
		log.Error(fmt.Sprintf("[%d/%d] Checking Crucible access... ❌ Cannot access Crucible", checkNum, totalChecks))
		return exitError(exitExternalServiceUnavailable, "Cannot access Crucible",
			errwrap.NewExternalServiceError("Crucible service unavailable"))
	}
	log.Info(fmt.Sprintf("[%d/%d] Checking Crucible access... ✅ v%s", checkNum, totalChecks, version.Crucible),
		zap.String("crucible_version", version.Crucible))
	checkNum++

	if version.Gofulmen != "" {
		log.Info(fmt.Sprintf("[%d/%d] Checking Gofulmen access... ✅ v%s", checkNum, totalChecks, version.Gofulmen),
			zap.String("gofulmen_version", version.Gofulmen))
	} else {
		log.Error(fmt.Sprintf("[%d/%d] Checking Gofulmen access... ❌ Cannot access Gofulmen", checkNum, totalChecks))
		allChecks = false
	}
	checkNum++

	configName := config.DefaultIdentity().ConfigName
	if identity != nil {
		configName = identity.ConfigName
	}
	configDir := gfconfig.GetAppConfigDir(configName)
	if !filepath.IsAbs(configDir) {
		err := errors.New("neither XDG_CONFIG_HOME nor HOME is set")
		log.Error(fmt.Sprintf("[%d/%d] Checking config directory... ❌ Cannot find config directory", checkNum, totalChecks),
			zap.Error(err))
		return exitError(exitFileNotFound, "Cannot find config directory",
			errwrap.WrapInternal(cmd.Context(), err, "Cannot find config directory"))
	}
	log.Info(fmt.Sprintf("[%d/%d] Checking config directory... ✅ %s", checkNum, totalChecks, configDir),
		zap.String("config_dir", configDir))
	checkNum++

	log.Info(fmt.Sprintf("[%d/%d] Checking environment... ✅ %s/%s", checkNum, totalChecks, runtime.GOOS, runtime.GOARCH),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))
	checkNum++

	if provider == providerName {
		allChecks = a.runFirehoseChecks(cmd.Context(), checkNum, totalChecks) && allChecks
	}

	log.Info("")
	if allChecks {
		log.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", bannerName))
	} else {
		log.Warn("⚠️  Some checks failed. Review the output above for details.")
	}
	log.Info("")
	log.Info("=== End Diagnostics ===")
	return nil
}

// runFirehoseChecks verifies credentials, region, and that the endpoint answers a
// one-item ListDeliveryStreams.
func (a *app) runFirehoseChecks(ctx context.Context, checkNum, totalChecks int) bool {
	log := observability.CLILogger
	log.Info("")
	log.Info("Firehose Provider Checks:")

	fcfg := a.cfg.AWS.Firehose()
	awsCfg, err := firehose.LoadAWSConfig(ctx, fcfg)
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking AWS credentials... ❌ Cannot load AWS config", checkNum, totalChecks),
			zap.Error(err))
		printAWSCredentialsHelp()
		return false
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking AWS credentials... ❌ Cannot retrieve credentials", checkNum, totalChecks),
			zap.Error(err))
		printAWSCredentialsHelp()
		return false
	}
	source := creds.Source
	if source == "" {
		source = "unknown"
	}
	log.Info(fmt.Sprintf("[%d/%d] Checking AWS credentials... ✅ Found credentials", checkNum, totalChecks),
		zap.String("access_key", maskAccessKey(creds.AccessKeyID)),
		zap.String("source", source))
	checkNum++

	ok := true
	switch {
	case fcfg.Region != "" || fcfg.Endpoint != "":
		log.Info(fmt.Sprintf("[%d/%d] Checking region... ✅ %s (configured)", checkNum, totalChecks, awsCfg.Region),
			zap.String("region", awsCfg.Region))
	default:
		region, err := imdsRegion(ctx, awsCfg)
		if err == nil && region != "" {
			log.Info(fmt.Sprintf("[%d/%d] Checking region... ✅ %s (instance metadata)", checkNum, totalChecks, region),
				zap.String("region", region))
			fcfg.Region = region
		} else {
			log.Warn(fmt.Sprintf("[%d/%d] Checking region... ⚠️  not configured, using %s", checkNum, totalChecks, awsCfg.Region),
				zap.String("region", awsCfg.Region))
			ok = false
		}
	}
	checkNum++

	client, err := a.newClient(ctx, fcfg)
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking Firehose endpoint... ❌ Cannot create client", checkNum, totalChecks),
			zap.Error(err))
		return false
	}
	defer func() { _ = client.Close() }()

	out, err := client.ListDeliveryStreams(ctx, firehose.ListParams{Limit: m.Some(int32(1))}, firehose.DefaultListSelect)
	if err == nil {
		_, err = out.Result()
	}
	if err != nil {
		log.Error(fmt.Sprintf("[%d/%d] Checking Firehose endpoint... ❌ %s", checkNum, totalChecks, client.EndpointDescription()),
			zap.String("error_code", firehose.ErrorCode(err)),
			zap.Error(err))
		return false
	}
	log.Info(fmt.Sprintf("[%d/%d] Checking Firehose endpoint... ✅ %s", checkNum, totalChecks, client.EndpointDescription()),
		zap.String("endpoint", client.EndpointDescription()))

	return ok
}

// maskAccessKey masks all but the last 4 characters of an access key.
func maskAccessKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// printAWSCredentialsHelp prints help for configuring AWS credentials.
func printAWSCredentialsHelp() {
	log := observability.CLILogger
	log.Info("")
	log.Info("To configure AWS credentials:")
	log.Info("  1. Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables, or")
	log.Info("  2. Run 'aws configure' to set up a profile, or")
	log.Info("  3. Use IAM role when running on AWS infrastructure")
	log.Info("")
	log.Info("For LocalStack or moto, also set:")
	log.Info("  - GOFIREHOSE_ENDPOINT or use --endpoint flag")
	log.Info("")
}
