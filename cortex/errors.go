package cortex

import (
	"fmt"
	"strings"
)

// ParseError describes a frame or content item that could not be decoded.
// It never leaves the package: the frame is skipped and the stream continues.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError wraps a connection, timeout or request construction failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamStatusError is returned when an endpoint answers with a non-success status.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// StreamError reports a stream that terminated abnormally while being read.
type StreamError struct {
	Frames int
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("event stream failed after %d frames: %v", e.Frames, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// ConfigurationError lists required settings that are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}
