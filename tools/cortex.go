/*
Package tools exposes the Cortex operations as langchaingo tools so they can
be dispatched by name over HTTP or driven by an LLM agent.
*/
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cortexbridge/cortex"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

// Tool names, matching the operation names callers already know.
const (
	AgentToolName    = "run_cortex_agents"
	SearchToolName   = "run_cortex_search"
	GuidanceToolName = "get_search_guidance"
)

var cortexLogger = logrus.WithField("component", "tools")

// Runner is the part of *cortex.Client the tools depend on.
type Runner interface {
	RunAgent(ctx context.Context, query string) cortex.AgentResult
	RunSearch(ctx context.Context, query string) cortex.SearchResult
}

// CortexAgentTool runs the full agent: search, text-to-SQL and SQL execution.
type CortexAgentTool struct {
	runner Runner
	logger *logrus.Entry
}

func NewCortexAgentTool(runner Runner, logger *logrus.Entry) *CortexAgentTool {
	if logger == nil {
		logger = cortexLogger
	}
	return &CortexAgentTool{runner: runner, logger: logger.WithField("tool", AgentToolName)}
}

func (t *CortexAgentTool) Name() string { return AgentToolName }

func (t *CortexAgentTool) Description() string {
	return "Ask the Cortex agent a question about company data. It searches documents, writes SQL against the semantic model when needed, runs it, and returns JSON with text, citations, sql and results. Input: the question in plain English."
}

func (t *CortexAgentTool) Call(ctx context.Context, input string) (string, error) {
	query := normalizeInput(input)
	logger := t.logger.WithField("input", query)
	logger.Info("Cortex agent tool called")
	startTime := time.Now()

	result := t.runner.RunAgent(ctx, query)

	logger.WithFields(logrus.Fields{
		"executionTime": time.Since(startTime),
		"failed":        result.Error != "",
		"hasSQL":        result.SQL != "",
	}).Info("Cortex agent tool completed")
	return encode(result)
}

// CortexSearchTool runs a search-only query and returns text with citations.
type CortexSearchTool struct {
	runner Runner
	logger *logrus.Entry
}

func NewCortexSearchTool(runner Runner, logger *logrus.Entry) *CortexSearchTool {
	if logger == nil {
		logger = cortexLogger
	}
	return &CortexSearchTool{runner: runner, logger: logger.WithField("tool", SearchToolName)}
}

func (t *CortexSearchTool) Name() string { return SearchToolName }

func (t *CortexSearchTool) Description() string {
	return "Search the documentation with Cortex Search and return JSON with text and citations. Input MUST be in English; Japanese input is rejected with status TRANSLATION_REQUIRED and must be translated and resubmitted."
}

func (t *CortexSearchTool) Call(ctx context.Context, input string) (string, error) {
	query := normalizeInput(input)
	logger := t.logger.WithField("input", query)
	logger.Info("Cortex search tool called")
	startTime := time.Now()

	result := t.runner.RunSearch(ctx, query)

	logger.WithFields(logrus.Fields{
		"executionTime": time.Since(startTime),
		"failed":        result.Error != "",
		"rejected":      result.Rejection != nil,
		"citations":     len(result.Citations),
	}).Info("Cortex search tool completed")
	return encode(result)
}

// SearchGuidanceTool returns advice on phrasing search queries. It never touches the network.
type SearchGuidanceTool struct{}

func NewSearchGuidanceTool() *SearchGuidanceTool {
	return &SearchGuidanceTool{}
}

func (t *SearchGuidanceTool) Name() string { return GuidanceToolName }

func (t *SearchGuidanceTool) Description() string {
	return "Get guidance for phrasing a Cortex Search query, including translating non-English queries. Input: the original query in any language."
}

func (t *SearchGuidanceTool) Call(_ context.Context, input string) (string, error) {
	return encode(cortex.SearchGuidance(normalizeInput(input)))
}

// CortexTools returns every Cortex tool backed by runner.
func CortexTools(runner Runner, logger *logrus.Entry) []tools.Tool {
	return []tools.Tool{
		NewCortexAgentTool(runner, logger),
		NewCortexSearchTool(runner, logger),
		NewSearchGuidanceTool(),
	}
}

// Find returns the tool named name.
func Find(list []tools.Tool, name string) (tools.Tool, bool) {
	for _, tool := range list {
		if tool.Name() == name {
			return tool, true
		}
	}
	return nil, false
}

// normalizeInput trims whitespace and the quotes ReAct agents often wrap inputs in.
func normalizeInput(input string) string {
	input = strings.TrimSpace(input)
	if len(input) >= 2 {
		first, last := input[0], input[len(input)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			input = strings.TrimSpace(input[1 : len(input)-1])
		}
	}
	return input
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool output: %w", err)
	}
	return string(data), nil
}

var (
	_ tools.Tool = (*CortexAgentTool)(nil)
	_ tools.Tool = (*CortexSearchTool)(nil)
	_ tools.Tool = (*SearchGuidanceTool)(nil)
)
