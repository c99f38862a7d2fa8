package tools

import (
	"context"
	"encoding/json"
	"testing"

	"cortexbridge/cortex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	queries []string
	agent   cortex.AgentResult
	search  cortex.SearchResult
}

func (s *stubRunner) RunAgent(_ context.Context, query string) cortex.AgentResult {
	s.queries = append(s.queries, query)
	return s.agent
}

func (s *stubRunner) RunSearch(_ context.Context, query string) cortex.SearchResult {
	s.queries = append(s.queries, query)
	return s.search
}

func TestCortexAgentTool(t *testing.T) {
	runner := &stubRunner{agent: cortex.AgentResult{
		Text:    "42 orders",
		SQL:     "SELECT COUNT(*) FROM orders",
		Results: &cortex.StatementResult{Body: json.RawMessage(`{"data":[["42"]]}`)},
	}}
	tool := NewCortexAgentTool(runner, nil)

	out, err := tool.Call(context.Background(), `  "how many orders?"  `)
	require.NoError(t, err)

	assert.Equal(t, []string{"how many orders?"}, runner.queries)
	assert.JSONEq(t, `{"text":"42 orders","citations":[],"sql":"SELECT COUNT(*) FROM orders","results":{"data":[["42"]]}}`, out)
	assert.Equal(t, AgentToolName, tool.Name())
	assert.NotEmpty(t, tool.Description())
}

func TestCortexSearchToolError(t *testing.T) {
	runner := &stubRunner{search: cortex.SearchResult{Error: "HTTP 503: unavailable"}}

	out, err := NewCortexSearchTool(runner, nil).Call(context.Background(), "dynamic tables")
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"HTTP 503: unavailable"}`, out)
}

func TestSearchGuidanceTool(t *testing.T) {
	out, err := NewSearchGuidanceTool().Call(context.Background(), "'動的テーブル'")
	require.NoError(t, err)

	var g cortex.Guidance
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "動的テーブル", g.OriginalQuery)
}

func TestFind(t *testing.T) {
	list := CortexTools(&stubRunner{}, nil)
	require.Len(t, list, 3)

	tool, ok := Find(list, SearchToolName)
	require.True(t, ok)
	assert.Equal(t, SearchToolName, tool.Name())

	_, ok = Find(list, "shell")
	assert.False(t, ok)
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "abc", normalizeInput(" abc "))
	assert.Equal(t, "abc", normalizeInput(`"abc"`))
	assert.Equal(t, "abc", normalizeInput("' abc '"))
	assert.Equal(t, `"`, normalizeInput(`"`))
	assert.Equal(t, `"abc'`, normalizeInput(`"abc'`))
}
