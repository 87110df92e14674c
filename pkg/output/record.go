// Package output provides JSONL output for delivery-stream command results.
//
// Output is structured as typed record envelopes containing results,
// errors, preflight checks, and batch summaries. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: gofirehose.<type>.v<version>
const (
	// TypeResult identifies projected operation results.
	TypeResult = "gofirehose.result.v1"

	// TypeError identifies error records.
	TypeError = "gofirehose.error.v1"

	// TypeSummary identifies batch summary records.
	TypeSummary = "gofirehose.summary.v1"

	// TypePreflight identifies preflight check records.
	TypePreflight = "gofirehose.preflight.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field. The type field determines how to
// interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "gofirehose.result.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this command invocation.
	JobID string `json:"job_id"`

	// Provider identifies the remote service (e.g., "firehose").
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ResultRecord is the data payload for a successful operation.
type ResultRecord struct {
	// Operation is the remote operation name (e.g., "CreateDeliveryStream").
	Operation string `json:"operation"`

	// Stream is the delivery stream the operation targeted, if any.
	Stream string `json:"stream,omitempty"`

	// Select is the projector expression that produced Value.
	Select string `json:"select,omitempty"`

	// Value is the projected result.
	Value any `json:"value"`
}

// PreflightRecord is the data payload for preflight checks.
//
// Preflight records are emitted before a create is attempted. They provide
// an explicit contract for what was checked and whether the principal
// appears to have the required access.
type PreflightRecord struct {
	Mode    string                 `json:"mode"`
	Results []PreflightCheckResult `json:"results"`
}

// PreflightCheckResult is a single preflight check result.
type PreflightCheckResult struct {
	Capability string `json:"capability"`
	Allowed    bool   `json:"allowed"`
	Method     string `json:"method,omitempty"`
	Target     string `json:"target,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// ErrorRecord is the data payload for errors.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is the error message. Remote messages are passed through unchanged.
	Message string `json:"message"`

	// Operation is the remote operation that failed, if any.
	Operation string `json:"operation,omitempty"`

	// Stream is the delivery stream involved, if any.
	Stream string `json:"stream,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord.
const (
	// ErrCodeAccessDenied indicates permission failure.
	ErrCodeAccessDenied = "ACCESS_DENIED"

	// ErrCodeNotFound indicates the delivery stream or resource was not found.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeTimeout indicates an operation timed out or was cancelled.
	ErrCodeTimeout = "TIMEOUT"

	// ErrCodeThrottled indicates rate limiting.
	ErrCodeThrottled = "THROTTLED"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "INTERNAL"

	// ErrCodeProviderUnavailable indicates the service or endpoint could not be reached.
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"

	// ErrCodeInvalidArgument indicates the service rejected the request parameters.
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"

	// ErrCodeInvalidConfig indicates a local configuration error detected before any call.
	ErrCodeInvalidConfig = "INVALID_CONFIG"

	// ErrCodeResourceInUse indicates the resource is busy or already exists.
	ErrCodeResourceInUse = "RESOURCE_IN_USE"

	// ErrCodeLimitExceeded indicates an account or stream limit was reached.
	ErrCodeLimitExceeded = "LIMIT_EXCEEDED"

	// ErrCodeInvalidKMSResource indicates the KMS key could not be used.
	ErrCodeInvalidKMSResource = "INVALID_KMS_RESOURCE"

	// ErrCodeConcurrentModification indicates a conflicting concurrent update.
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// ErrCodeInvalidCredentials indicates authentication failed.
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// SummaryRecord is the data payload for batch summaries.
//
// A summary record is emitted at the end of a put-batch run with aggregate
// statistics across all chunks.
type SummaryRecord struct {
	// Batches is the number of PutRecordBatch invocations made.
	Batches int `json:"batches"`

	// Records is the number of records submitted.
	Records int `json:"records"`

	// FailedRecords is the number of records the service reported as failed.
	FailedRecords int `json:"failed_records"`

	// Bytes is the total payload size submitted.
	Bytes int64 `json:"bytes"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// Files lists the input files that were read.
	Files []string `json:"files,omitempty"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
