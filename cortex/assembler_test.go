package cortex

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger)
}

func TestAssembleHelloWorld(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"delta":{"content":[{"type":"text","text":"Hello "}]}}`,
		`data: {"delta":{"content":[{"type":"text","text":"world"}]}}`,
		`data: [DONE]`,
	}, "\n\n")

	got, err := Assemble(context.Background(), strings.NewReader(stream), FullAgent, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got.Text)
	assert.Empty(t, got.SQL)
	assert.Empty(t, got.Citations)
}

func TestAssembleNestedToolResults(t *testing.T) {
	stream := `event: message.delta
data: {"data":{"delta":{"content":[{"type":"tool_results","tool_results":{"content":[{"type":"json","json":{"sql":"SELECT 1","searchResults":[{"source_id":"a","doc_id":"1"}]}}]}}]}}}
`
	got, err := Assemble(context.Background(), strings.NewReader(stream), FullAgent, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got.SQL)
	assert.Equal(t, []Citation{{SourceID: "a", DocID: "1"}}, got.Citations)
}

func TestAssembleMalformedFrameIsolation(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"delta":{"content":[{"type":"text","text":"one "}]}}`,
		`data: {"delta": {"content": [`,
		`data: not-json-at-all`,
		`data: {"delta":{"content":[{"type":"text","text":"two"}]}}`,
	}, "\n")

	got, err := Assemble(context.Background(), strings.NewReader(stream), FullAgent, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "one two", got.Text)
}

func TestAssembleLastSQLAcrossFrames(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"delta":{"content":[{"type":"tool_results","tool_results":{"content":[{"type":"json","json":{"sql":"SELECT a FROM t"}}]}}]}}`,
		`data: {"delta":{"content":[{"type":"tool_results","tool_results":{"content":[{"type":"json","json":{"sql":"SELECT b FROM t"}}]}}]}}`,
	}, "\n")

	got, err := Assemble(context.Background(), strings.NewReader(stream), FullAgent, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "SELECT b FROM t", got.SQL)
}

func TestAssembleSearchOnlyDropsSQL(t *testing.T) {
	stream := `data: {"delta":{"content":[{"type":"tool_results","tool_results":{"content":[{"type":"json","json":{"text":"docs","sql":"SELECT 1","searchResults":[{"source_id":"s","doc_id":"d"}]}}]}}]}}`

	got, err := Assemble(context.Background(), strings.NewReader(stream), SearchOnly, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Text)
	assert.Empty(t, got.SQL)
	assert.Len(t, got.Citations, 1)
}

func TestAssembleOnlyTerminators(t *testing.T) {
	got, err := Assemble(context.Background(), strings.NewReader("data: [DONE]\ndata:\n\n"), FullAgent, nil)
	require.NoError(t, err)
	assert.Equal(t, Accumulated{Citations: []Citation{}}, got)
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestAssembleStreamError(t *testing.T) {
	broken := errors.New("connection reset by peer")
	r := &failingReader{
		data: []byte("data: {\"delta\":{\"content\":[{\"type\":\"text\",\"text\":\"partial\"}]}}\n"),
		err:  broken,
	}

	_, err := Assemble(context.Background(), r, FullAgent, testLogger())

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 1, streamErr.Frames)
}

func TestAssembleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Assemble(ctx, strings.NewReader(`data: {"delta":{}}`), FullAgent, testLogger())

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, io.EOF)
}
