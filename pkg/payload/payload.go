// Package payload opens record data for put operations.
//
// A Body is owned by exactly one invocation and must be closed on every exit path.
// Sizes are checked against the service record limit before any remote call.
package payload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Service limits for Firehose records and batches.
const (
	// MaxRecordBytes is the largest record the service accepts, before base64 encoding.
	MaxRecordBytes = 1000 * 1024

	// MaxBatchRecords is the record count limit of one PutRecordBatch call.
	MaxBatchRecords = 500

	// MaxBatchBytes is the payload size limit of one PutRecordBatch call.
	MaxBatchBytes = 4 << 20
)

// Kind identifies where record data comes from.
type Kind int

const (
	// KindText is inline UTF-8 text.
	KindText Kind = iota

	// KindBase64 is inline base64-encoded bytes.
	KindBase64

	// KindFile is a file path.
	KindFile

	// KindStdin is standard input.
	KindStdin
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBase64:
		return "base64"
	case KindFile:
		return "file"
	case KindStdin:
		return "stdin"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source describes one record payload.
type Source struct {
	Kind Kind

	// Value is the inline text, the base64 text, or the file path.
	Value string

	// Stdin replaces os.Stdin for KindStdin.
	Stdin io.Reader
}

// Text returns an inline text source.
func Text(s string) Source { return Source{Kind: KindText, Value: s} }

// Base64 returns an inline base64 source.
func Base64(s string) Source { return Source{Kind: KindBase64, Value: s} }

// File returns a file source. The path "-" reads standard input.
func File(path string) Source {
	if path == "-" {
		return Source{Kind: KindStdin, Value: "-"}
	}
	return Source{Kind: KindFile, Value: path}
}

// Reader returns a stream source over r, labelled for error messages. If r is an
// io.Closer it is closed with the Body.
func Reader(label string, r io.Reader) Source {
	return Source{Kind: KindStdin, Value: label, Stdin: r}
}

// Label describes the source in error messages.
func (s Source) Label() string {
	switch s.Kind {
	case KindFile:
		return s.Value
	case KindStdin:
		if s.Value != "" && s.Value != "-" {
			return s.Value
		}
		return "stdin"
	default:
		return s.Kind.String()
	}
}

// ErrBodyClosed is returned when reading a closed Body.
var ErrBodyClosed = errors.New("payload body is closed")

// TooLargeError reports a payload over the service limit.
type TooLargeError struct {
	Source string
	Size   int64
	Limit  int64
}

// Error implements the error interface.
func (e *TooLargeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("payload %s exceeds %d bytes", e.Source, e.Limit)
	}
	return fmt.Sprintf("payload %s is %d bytes, exceeds %d bytes", e.Source, e.Size, e.Limit)
}

// IsTooLarge reports whether err is a TooLargeError.
func IsTooLarge(err error) bool {
	var tl *TooLargeError
	return errors.As(err, &tl)
}

// Body is a record payload stream owned by one invocation.
type Body struct {
	r       io.Reader
	label   string
	cleanup func() error

	mu     sync.Mutex
	closed bool
	err    error
}

// Read implements io.Reader.
func (b *Body) Read(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, ErrBodyClosed
	}
	return b.r.Read(p)
}

// Close releases the underlying resource. It is safe to call more than once.
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return b.err
	}
	b.closed = true
	if b.cleanup != nil {
		b.err = b.cleanup()
	}
	return b.err
}

// Closed reports whether Close has been called.
func (b *Body) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Label describes the body's source.
func (b *Body) Label() string { return b.label }

// Open opens src for reading.
//
// Files larger than MaxRecordBytes are rejected before they are opened. Other
// sources are bounded while reading by ReadAll.
func Open(ctx context.Context, src Source) (*Body, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := src.Label()
	switch src.Kind {
	case KindText:
		return &Body{r: strings.NewReader(src.Value), label: label}, nil

	case KindBase64:
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(src.Value))
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return &Body{r: bytes.NewReader(data), label: label}, nil

	case KindStdin:
		r := src.Stdin
		if r == nil {
			r = os.Stdin
		}
		b := &Body{r: r, label: label}
		if c, ok := r.(io.Closer); ok && r != io.Reader(os.Stdin) {
			b.cleanup = c.Close
		}
		return b, nil

	case KindFile:
		info, err := os.Stat(src.Value)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("payload %s is a directory", src.Value)
		}
		if info.Size() > MaxRecordBytes {
			return nil, &TooLargeError{Source: label, Size: info.Size(), Limit: MaxRecordBytes}
		}
		f, err := os.Open(src.Value)
		if err != nil {
			return nil, err
		}
		return &Body{r: f, label: label, cleanup: f.Close}, nil

	default:
		return nil, fmt.Errorf("unknown payload kind %s", src.Kind)
	}
}

// ReadAll reads b up to MaxRecordBytes, honouring cancellation between reads.
func ReadAll(ctx context.Context, b *Body) ([]byte, error) {
	return readLimited(ctx, b, b.Label(), MaxRecordBytes)
}

func readLimited(ctx context.Context, r io.Reader, label string, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			if int64(buf.Len()+n) > limit {
				return nil, &TooLargeError{Source: label, Size: -1, Limit: limit}
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
