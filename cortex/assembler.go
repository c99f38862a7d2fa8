package cortex

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// AssembleMode selects what the assembler retains from the stream.
type AssembleMode int

const (
	// FullAgent keeps text, SQL and citations.
	FullAgent AssembleMode = iota
	// SearchOnly keeps text and citations and always reports an empty SQL statement.
	SearchOnly
)

func (m AssembleMode) String() string {
	if m == SearchOnly {
		return "search_only"
	}
	return "full_agent"
}

// Assemble reads an agent event stream to completion and returns the
// accumulated response. Malformed frames are skipped; only a failure of the
// underlying reader or an expired context ends the stream early, as a *StreamError.
func Assemble(ctx context.Context, r io.Reader, mode AssembleMode, logger *logrus.Entry) (Accumulated, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	frames := NewFrameReader(r)
	var acc Accumulator
	count, malformed := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return Accumulated{}, &StreamError{Frames: count, Err: err}
		}

		payload, err := frames.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return Accumulated{}, &StreamError{Frames: count, Err: err}
		}
		count++

		delta, ok, err := extractDelta(payload)
		if err != nil {
			malformed++
			logger.WithError(err).WithField("frame", count).Debug("Skipping malformed frame")
			continue
		}
		if !ok {
			continue
		}
		if skipped := acc.Apply(delta); skipped > 0 {
			logger.WithFields(logrus.Fields{
				"frame":   count,
				"skipped": skipped,
			}).Debug("Skipped undecodable content items")
		}
	}

	result := acc.Result()
	if mode == SearchOnly {
		result.SQL = ""
	}

	logger.WithFields(logrus.Fields{
		"mode":       mode.String(),
		"frames":     count,
		"malformed":  malformed,
		"textLength": len(result.Text),
		"hasSQL":     result.SQL != "",
		"citations":  len(result.Citations),
	}).Debug("Event stream assembled")

	return result, nil
}
