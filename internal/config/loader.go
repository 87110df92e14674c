package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/3leaps/gofirehose/pkg/payload"
)

// AppIdentity names the binary and its configuration surfaces.
type AppIdentity struct {
	BinaryName string
	EnvPrefix  string
	ConfigName string
}

// DefaultIdentity is the identity of the gofirehose binary.
func DefaultIdentity() *AppIdentity {
	return &AppIdentity{
		BinaryName: "gofirehose",
		EnvPrefix:  "GOFIREHOSE",
		ConfigName: "gofirehose",
	}
}

// EnvSpec maps one environment variable to a config key path.
type EnvSpec struct {
	Name string
	Path string
}

var (
	configMu    sync.RWMutex
	appIdentity *AppIdentity
	appConfig   *Config
	configFile  string
)

// envKeys lists the environment suffixes and the keys they set.
var envKeys = []struct{ suffix, path string }{
	{"REGION", "aws.region"},
	{"PROFILE", "aws.profile"},
	{"ENDPOINT", "aws.endpoint"},
	{"REQUEST_TIMEOUT", "aws.request_timeout"},
	{"LOG_LEVEL", "logging.level"},
	{"LOG_PROFILE", "logging.profile"},
	{"OUTPUT", "output.format"},
	{"READONLY", "readonly"},
	{"HOST", "server.host"},
	{"PORT", "server.port"},
	{"READ_TIMEOUT", "server.read_timeout"},
	{"WRITE_TIMEOUT", "server.write_timeout"},
	{"IDLE_TIMEOUT", "server.idle_timeout"},
	{"SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
	{"BATCH_MAX_RECORDS", "batch.max_records"},
	{"BATCH_MAX_BYTES", "batch.max_bytes"},
	{"BATCH_RATE", "batch.rate"},
}

// SetConfigFile makes the next Load read path instead of searching the user
// config directory. An empty path restores the search.
func SetConfigFile(path string) {
	configMu.Lock()
	defer configMu.Unlock()
	configFile = path
}

// Load resolves the configuration and makes it available through GetConfig.
//
// Each override map is applied on top of files and environment, with nested
// maps addressing nested keys.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	configMu.Lock()
	defer configMu.Unlock()

	if appIdentity == nil {
		appIdentity = DefaultIdentity()
	}

	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", spec.Name, err)
		}
	}

	for _, o := range overrides {
		applyOverrides(v, "", o)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Logging.Profile = strings.ToLower(cfg.Logging.Profile)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// Identity returns the application identity, or nil before the first Load.
func Identity() *AppIdentity {
	configMu.RLock()
	defer configMu.RUnlock()
	return appIdentity
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.request_timeout", "0s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "console")

	v.SetDefault("output.format", "jsonl")
	v.SetDefault("readonly", false)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("batch.max_records", payload.MaxBatchRecords)
	v.SetDefault("batch.max_bytes", payload.MaxBatchBytes)
	v.SetDefault("batch.rate", 0)
}

// getEnvSpecs returns the environment mappings for the current identity.
// Caller must hold configMu or run before concurrent use.
func getEnvSpecs() []EnvSpec {
	if appIdentity == nil {
		return []EnvSpec{}
	}

	specs := make([]EnvSpec, 0, len(envKeys))
	for _, k := range envKeys {
		specs = append(specs, EnvSpec{Name: appIdentity.EnvPrefix + "_" + k.suffix, Path: k.path})
	}
	return specs
}

// getUserConfigPaths returns candidate config files, most specific first:
// $XDG_CONFIG_HOME/<name>/config.{yaml,json}, ~/.<name>/, ~/.<name>.yaml, then the
// working directory.
func getUserConfigPaths() []string {
	if appIdentity == nil {
		return []string{}
	}
	return gfconfig.GetAppConfigPaths(appIdentity.ConfigName)
}

func readConfigFile(v *viper.Viper) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
		return nil
	}

	for _, path := range getUserConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// applyOverrides sets every leaf of o. Set has the highest precedence in viper,
// so overrides beat environment variables.
func applyOverrides(v *viper.Viper, prefix string, o map[string]any) {
	for k, val := range o {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			applyOverrides(v, key, nested)
			continue
		}
		v.Set(key, val)
	}
}
