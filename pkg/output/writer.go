package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Output formats.
const (
	// FormatJSONL writes one enveloped record per line.
	FormatJSONL = "jsonl"

	// FormatJSON writes bare, indented payloads without the envelope.
	FormatJSON = "json"
)

// Writer outputs records for command results.
//
// Implementations must be safe for concurrent use from multiple
// goroutines. Each Write* method emits one complete record.
type Writer interface {
	// WriteResult emits a projected operation result.
	WriteResult(ctx context.Context, res *ResultRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, err *ErrorRecord) error

	// WriteSummary emits a batch summary record.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// WritePreflight emits a preflight record.
	WritePreflight(ctx context.Context, preflight *PreflightRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// New returns a Writer for the named format.
func New(format string, w io.Writer, jobID, provider string) (Writer, error) {
	switch format {
	case "", FormatJSONL:
		return NewJSONLWriter(w, jobID, provider), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected %s or %s)", format, FormatJSONL, FormatJSON)
	}
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using
// a mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w        io.Writer
	jobID    string
	provider string
	mu       sync.Mutex

	// closed indicates the writer has been closed.
	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - jobID: Correlation ID for this invocation
//   - provider: Service identifier (e.g., "firehose")
func NewJSONLWriter(w io.Writer, jobID, provider string) *JSONLWriter {
	return &JSONLWriter{
		w:        w,
		jobID:    jobID,
		provider: provider,
	}
}

// WriteResult emits a result record.
func (jw *JSONLWriter) WriteResult(ctx context.Context, res *ResultRecord) error {
	return jw.writeRecord(ctx, TypeResult, res)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, err *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, err)
}

// WriteSummary emits a summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, sum)
}

// WritePreflight emits a preflight record.
func (jw *JSONLWriter) WritePreflight(ctx context.Context, preflight *PreflightRecord) error {
	return jw.writeRecord(ctx, TypePreflight, preflight)
}

// Close marks the writer as closed.
//
// If the underlying writer implements io.Closer, it is NOT closed.
// The caller is responsible for closing the underlying writer.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

// writeRecord marshals data and writes a complete record line.
//
// This method holds the mutex for the entire operation to ensure
// atomic line writes.
func (jw *JSONLWriter) writeRecord(ctx context.Context, recordType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Marshal the data payload outside the lock.
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return &WriteError{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	record := Record{
		Type:     recordType,
		TS:       time.Now().UTC(),
		JobID:    jw.jobID,
		Provider: jw.provider,
		Data:     dataBytes,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return &WriteError{Op: "marshal_record", Err: err}
	}

	// io.Writer is allowed to return n < len(p) with nil error, which would
	// silently truncate JSONL lines.
	recordBytes = append(recordBytes, '\n')
	if err := writeAll(jw.w, recordBytes); err != nil {
		return &WriteError{Op: "write", Err: err}
	}

	return nil
}

// JSONWriter writes bare payloads as indented JSON documents.
//
// Results are written as their projected value only, so scalar selections
// print as plain JSON scalars. JSONWriter is safe for concurrent use.
type JSONWriter struct {
	w      io.Writer
	mu     sync.Mutex
	closed bool
}

// NewJSONWriter creates a new bare JSON writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// WriteResult emits the projected value.
func (jw *JSONWriter) WriteResult(ctx context.Context, res *ResultRecord) error {
	return jw.write(ctx, res.Value)
}

// WriteError emits the error as {"error": {...}}.
func (jw *JSONWriter) WriteError(ctx context.Context, err *ErrorRecord) error {
	return jw.write(ctx, map[string]any{"error": err})
}

// WriteSummary emits the summary payload.
func (jw *JSONWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.write(ctx, sum)
}

// WritePreflight emits the preflight payload.
func (jw *JSONWriter) WritePreflight(ctx context.Context, preflight *PreflightRecord) error {
	return jw.write(ctx, preflight)
}

// Close marks the writer as closed.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

func (jw *JSONWriter) write(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}
	if err := writeAll(jw.w, append(b, '\n')); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

// writeAll writes all bytes to w, handling short writes.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			// No progress made - avoid infinite loop
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Compile-time checks that the writers implement Writer.
var (
	_ Writer = (*JSONLWriter)(nil)
	_ Writer = (*JSONWriter)(nil)
)
