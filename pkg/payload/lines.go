package payload

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decoding selects how ReadLines turns a line into record data.
type Decoding string

const (
	// DecodeRaw uses each line as-is.
	DecodeRaw Decoding = "raw"

	// DecodeJSON requires each line to be a valid JSON document.
	DecodeJSON Decoding = "json"

	// DecodeBase64 base64-decodes each line.
	DecodeBase64 Decoding = "base64"
)

// ParseDecoding validates a decoding name. Empty means DecodeRaw.
func ParseDecoding(s string) (Decoding, error) {
	switch Decoding(s) {
	case "", DecodeRaw:
		return DecodeRaw, nil
	case DecodeJSON, DecodeBase64:
		return Decoding(s), nil
	default:
		return "", fmt.Errorf("unknown record decoding %q (expected raw, json, or base64)", s)
	}
}

// LineOptions configures ReadLines.
type LineOptions struct {
	Decoding Decoding

	// Delimiter is appended to every record after decoding (e.g. "\n").
	Delimiter []byte

	// Label names the input in error messages.
	Label string
}

// LineError reports a bad line.
type LineError struct {
	Label string
	Line  int
	Err   error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Label, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *LineError) Unwrap() error { return e.Err }

// ReadLines splits newline-delimited input into records. Blank lines are skipped
// and CRLF line endings are read as LF.
func ReadLines(ctx context.Context, r io.Reader, opts LineOptions) ([][]byte, error) {
	dec, err := ParseDecoding(string(opts.Decoding))
	if err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = "input"
	}

	sc := bufio.NewScanner(r)
	// base64 lines are up to 4/3 the decoded size.
	sc.Buffer(make([]byte, 64*1024), 2*MaxRecordBytes)

	var records [][]byte
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		data, err := decodeLine(raw, dec)
		if err != nil {
			return nil, &LineError{Label: label, Line: line, Err: err}
		}
		data = append(data, opts.Delimiter...)
		if len(data) > MaxRecordBytes {
			return nil, &LineError{Label: label, Line: line, Err: &TooLargeError{
				Source: fmt.Sprintf("%s:%d", label, line), Size: int64(len(data)), Limit: MaxRecordBytes,
			}}
		}
		records = append(records, data)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &LineError{Label: label, Line: line + 1, Err: &TooLargeError{
				Source: fmt.Sprintf("%s:%d", label, line+1), Size: -1, Limit: MaxRecordBytes,
			}}
		}
		return nil, err
	}
	return records, nil
}

func decodeLine(raw []byte, dec Decoding) ([]byte, error) {
	switch dec {
	case DecodeJSON:
		if !json.Valid(raw) {
			return nil, errors.New("invalid JSON")
		}
		return append([]byte(nil), raw...), nil
	case DecodeBase64:
		s := string(bytes.TrimSpace(raw))
		out, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		return out, nil
	default:
		// Scanner reuses its buffer.
		return append([]byte(nil), raw...), nil
	}
}
