// Package firehose maps delivery-stream operations onto the AWS SDK v2 Firehose
// client through the request materializer.
//
// Each operation has a params struct of optional inputs and a binding table that
// turns it into one SDK request. Nested configuration blocks are only sent when at
// least one of their inputs is present.
package firehose

import "time"

// Config configures a Firehose client.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
//
// Region handling mirrors the SDK: an explicit Region wins, then environment and
// profile. When nothing resolves and no Endpoint is set, DefaultAWSRegion is used.
type Config struct {
	// Region is the AWS region.
	Region string

	// Endpoint is a custom endpoint URL (e.g. LocalStack or moto).
	// Leave empty for AWS.
	Endpoint string

	// Profile is the AWS profile name to use from shared config.
	Profile string

	// AccessKeyID is an explicit access key. If set, SecretAccessKey must also be set.
	AccessKeyID string

	// SecretAccessKey is an explicit secret key. Required if AccessKeyID is set.
	SecretAccessKey string

	// SessionToken is an optional session token for temporary credentials.
	SessionToken string

	// RequestTimeout bounds each remote call. Zero leaves the caller's context alone.
	RequestTimeout time.Duration
}

// DefaultAWSRegion is the fallback region when none is configured.
const DefaultAWSRegion = "us-east-1"

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}
	if c.SessionToken != "" && c.AccessKeyID == "" {
		return &ConfigError{
			Field:   "SessionToken",
			Message: "session token requires explicit access key credentials",
		}
	}
	if c.RequestTimeout < 0 {
		return &ConfigError{Field: "RequestTimeout", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "firehose config: " + e.Field + ": " + e.Message
}

// resolveRegion applies the fallback region after SDK config loading.
//
// sdkRegion already reflects an explicit region, environment, or profile. Only when
// it is still empty and no custom endpoint is configured is DefaultAWSRegion used.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}
