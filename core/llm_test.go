package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/prompts"
)

func newTestWrapper(responses ...string) *CleaningLLMWrapper {
	return NewCleaningLLMWrapper(&scriptedLLM{responses: responses}, testConfig(), testLogger().WithField("component", "llm"))
}

func TestCleanAgentResponse(t *testing.T) {
	w := newTestWrapper()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "think block removed",
			input:    "<think>planning</think>\nThought: search\nAction: run_cortex_search\nAction Input: tables",
			expected: "Thought: search\nAction: run_cortex_search\nAction Input: tables",
		},
		{
			name:     "unterminated think block dropped",
			input:    "Final Answer: yes\n<think>still going",
			expected: "Final Answer: yes",
		},
		{
			name:     "bare answer wrapped",
			input:    "Hello there",
			expected: "Thought: I can answer this directly.\nFinal Answer: Hello there",
		},
		{
			name:     "empty action input repaired",
			input:    "Thought: guidance\nAction: get_search_guidance\nAction Input:",
			expected: "Thought: guidance\nAction: get_search_guidance\nAction Input: ",
		},
		{
			name:     "blank lines collapsed",
			input:    "Thought: a\n\n\n\nFinal Answer: b",
			expected: "Thought: a\n\nFinal Answer: b",
		},
		{
			name:     "only reasoning falls back",
			input:    "<reasoning>nothing useful</reasoning>",
			expected: emptyResponseFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.cleanAgentResponse(tt.input))
		})
	}
}

func TestGenerateContentCleansChoices(t *testing.T) {
	w := newTestWrapper("<think>x</think>Direct reply")

	resp, err := w.GenerateContent(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Thought: I can answer this directly.\nFinal Answer: Direct reply", resp.Choices[0].Content)
}

func TestRecoverFinalAnswer(t *testing.T) {
	w := newTestWrapper()

	answer, ok := w.RecoverFinalAnswer("I think the answer is 42")
	require.True(t, ok)
	assert.Equal(t, "I think the answer is 42", answer)

	answer, ok = w.RecoverFinalAnswer("Thought: hmm\nFinal Answer:   ")
	assert.False(t, ok)
	assert.Empty(t, answer)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}

func TestCreateCortexPrompt(t *testing.T) {
	toolsList := newServer(&stubRunner{}, testConfig(), testLogger()).toolsList
	prompt := CreateCortexPrompt(toolsList)

	assert.Equal(t, prompts.TemplateFormatGoTemplate, prompt.TemplateFormat)
	assert.ElementsMatch(t, []string{"input", "agent_scratchpad", "today"}, prompt.InputVariables)

	text, err := prompt.Format(map[string]any{
		"input":            "How many orders?",
		"agent_scratchpad": "",
		"today":            "October 17, 2026",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "run_cortex_agents, run_cortex_search, get_search_guidance")
	assert.Contains(t, text, "Question: How many orders?")
}
