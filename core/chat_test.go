package core

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"cortexbridge/cortex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/llms"
)

// scriptedLLM replays canned completions in order, repeating the last one.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (m *scriptedLLM) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.responses[i]}}}, nil
}

func (m *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newChatServer(runner *stubRunner, responses ...string) *Server {
	config := testConfig()
	logger := testLogger()
	s := newServer(runner, config, logger)
	wrapped := NewCleaningLLMWrapper(&scriptedLLM{responses: responses}, config, logger.WithField("component", "llm"))
	s.chat = NewChatHost(wrapped, s.toolsList, config)
	return s
}

func TestChatRunsSearchTool(t *testing.T) {
	runner := &stubRunner{search: cortex.SearchResult{Text: "Dynamic tables refresh automatically."}}
	s := newChatServer(runner,
		"Thought: I should search the docs.\nAction: run_cortex_search\nAction Input: dynamic tables",
		"Thought: I have the answer.\nFinal Answer: Dynamic tables refresh automatically.",
	)

	rec := doJSON(newTestEcho(s), http.MethodPost, "/chat", `{"message":"How do dynamic tables refresh?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Dynamic tables refresh automatically."}`, rec.Body.String())
	assert.Equal(t, []string{"dynamic tables"}, runner.queries)
}

func TestChatDirectAnswerIsWrapped(t *testing.T) {
	s := newChatServer(&stubRunner{}, "<think>easy</think>Hello! Ask me about your data.")

	rec := doJSON(newTestEcho(s), http.MethodPost, "/chat", `{"message":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Hello! Ask me about your data."}`, rec.Body.String())
}

func TestChatUnavailable(t *testing.T) {
	s := newServer(&stubRunner{}, testConfig(), testLogger())

	rec := doJSON(newTestEcho(s), http.MethodPost, "/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(newTestEcho(s), http.MethodPost, "/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamChat(t *testing.T) {
	runner := &stubRunner{agent: cortex.AgentResult{Text: "42 orders", SQL: "SELECT COUNT(*) FROM orders"}}
	s := newChatServer(runner,
		"Thought: I need numbers.\nAction: run_cortex_agents\nAction Input: how many orders",
		"Final Answer: There are 42 orders.",
	)

	rec := doJSON(newTestEcho(s), http.MethodPost, "/chat/stream", `{"message":"How many orders?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"execution_started"`)
	assert.Contains(t, body, `"tool":"run_cortex_agents"`)
	assert.Contains(t, body, `"type":"response","content":"There are 42 orders.","complete":true`)
	assert.NotContains(t, body, `"type":"debug"`)
	assert.Empty(t, s.cancelManager.GetActiveExecutions())
}

func TestStreamChatDebugFrames(t *testing.T) {
	s := newChatServer(&stubRunner{},
		"Action: run_cortex_search\nAction Input: security",
		"Final Answer: done",
	)

	rec := doJSON(newTestEcho(s), http.MethodPost, "/chat/stream", `{"message":"security?","debug":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"debug"`)
}

func TestGetErrorMessage(t *testing.T) {
	assert.Contains(t, getErrorMessage(agents.ErrNotFinished), "too many steps")
	assert.Contains(t, getErrorMessage(context.DeadlineExceeded), "timed out")
	assert.Contains(t, getErrorMessage(errChatUnavailable), "No chat model")
	assert.Contains(t, getErrorMessage(assert.AnError), "try again")
}
