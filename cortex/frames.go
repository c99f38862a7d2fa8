package cortex

import (
	"bufio"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// maxFrameSize bounds a single line of the event stream.
	maxFrameSize = 1024 * 1024
)

// FrameReader splits an event stream into data frame payloads.
type FrameReader struct {
	scanner *bufio.Scanner
}

// NewFrameReader creates a frame reader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &FrameReader{scanner: s}
}

// Next returns the next non-empty data payload.
// It returns io.EOF once the underlying stream is exhausted.
func (r *FrameReader) Next() (string, error) {
	for r.scanner.Scan() {
		if payload, ok := framePayload(r.scanner.Text()); ok {
			return payload, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// framePayload applies the line filter: only non-empty "data:" lines that
// are not the stream terminator carry a payload.
func framePayload(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return "", false
	}
	payload := strings.TrimSpace(rest)
	if payload == "" || payload == doneSentinel {
		return "", false
	}
	return payload, true
}
