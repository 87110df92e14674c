// Package config loads gofirehose configuration from defaults, an optional YAML
// file, GOFIREHOSE_* environment variables, and runtime overrides, in increasing
// order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/3leaps/gofirehose/pkg/firehose"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/payload"
)

// Config is the resolved application configuration.
type Config struct {
	AWS      AWSConfig     `mapstructure:"aws"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Output   OutputConfig  `mapstructure:"output"`
	ReadOnly bool          `mapstructure:"readonly"`
	Server   ServerConfig  `mapstructure:"server"`
	Batch    BatchConfig   `mapstructure:"batch"`
}

// AWSConfig selects the endpoint and credentials for remote calls.
type AWSConfig struct {
	Region         string        `mapstructure:"region"`
	Profile        string        `mapstructure:"profile"`
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// OutputConfig configures result records.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP relay.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BatchConfig bounds put-batch chunking and pacing.
type BatchConfig struct {
	MaxRecords int     `mapstructure:"max_records"`
	MaxBytes   int     `mapstructure:"max_bytes"`
	Rate       float64 `mapstructure:"rate"`
}

// Firehose converts the AWS section to a client configuration.
func (c AWSConfig) Firehose() firehose.Config {
	return firehose.Config{
		Region:         c.Region,
		Endpoint:       c.Endpoint,
		Profile:        c.Profile,
		RequestTimeout: c.RequestTimeout,
	}
}

// Validate checks value ranges after decoding.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case output.FormatJSONL, output.FormatJSON:
	default:
		return fmt.Errorf("output.format: unknown format %q (expected %s or %s)", c.Output.Format, output.FormatJSONL, output.FormatJSON)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.AWS.RequestTimeout < 0 {
		return fmt.Errorf("aws.request_timeout: must not be negative")
	}
	if c.Batch.MaxRecords < 1 || c.Batch.MaxRecords > payload.MaxBatchRecords {
		return fmt.Errorf("batch.max_records: %d outside 1..%d", c.Batch.MaxRecords, payload.MaxBatchRecords)
	}
	if c.Batch.MaxBytes < 1 || c.Batch.MaxBytes > payload.MaxBatchBytes {
		return fmt.Errorf("batch.max_bytes: %d outside 1..%d", c.Batch.MaxBytes, payload.MaxBatchBytes)
	}
	if c.Batch.Rate < 0 {
		return fmt.Errorf("batch.rate: must not be negative")
	}
	return nil
}
