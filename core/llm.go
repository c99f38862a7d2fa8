/*
Package core provides LLM integration for the chat host agent.

The CleaningLLMWrapper sits between the langchaingo agent and the model and
strips reasoning tags and formatting slips from responses so the ReAct
output parser can read them.
*/
package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

var (
	thinkBlockRegex       = regexp.MustCompile(`(?i)(?s)<think>.*?</think>`)
	openThinkRegex        = regexp.MustCompile(`(?i)(?s)<think>.*`)
	reasoningBlockRegex   = regexp.MustCompile(`(?i)(?s)<reasoning>.*?</reasoning>`)
	multiNewlineRegex     = regexp.MustCompile(`\n\s*\n\s*\n+`)
	emptyActionInputRegex = regexp.MustCompile(`(?m)^Action Input:\s*$`)
	finalAnswerRegex      = regexp.MustCompile(`(?s)Final Answer:\s*(.*)`)
)

const emptyResponseFallback = "I understand your request but need to process it differently. Could you please rephrase your question?"

// NewLLM initializes the model selected by config.LLMProvider.
func NewLLM(config *Config, logger *logrus.Entry) (llms.Model, error) {
	switch config.LLMProvider {
	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key is required when using gemini provider. Set GEMINI_API_KEY environment variable")
		}
		logger.WithField("model", config.GeminiModel).Info("Initializing Gemini LLM")
		llm, err := googleai.New(
			context.Background(),
			googleai.WithAPIKey(config.GeminiAPIKey),
			googleai.WithDefaultModel(config.GeminiModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini LLM: %w", err)
		}
		return llm, nil

	default:
		logger.WithFields(logrus.Fields{
			"endpoint": config.OllamaEndpoint,
			"model":    config.OllamaModel,
		}).Info("Initializing Ollama LLM")
		llm, err := ollama.New(
			ollama.WithServerURL(config.OllamaEndpoint),
			ollama.WithModel(config.OllamaModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama LLM: %w", err)
		}
		return llm, nil
	}
}

// CleaningLLMWrapper wraps a model and cleans every response it produces.
type CleaningLLMWrapper struct {
	wrappedLLM llms.Model
	config     *Config
	logger     *logrus.Entry
}

func NewCleaningLLMWrapper(llm llms.Model, config *Config, logger *logrus.Entry) *CleaningLLMWrapper {
	return &CleaningLLMWrapper{
		wrappedLLM: llm,
		config:     config,
		logger:     logger,
	}
}

func (w *CleaningLLMWrapper) truncateForLog(text string) string {
	return truncate(text, w.config.LogTruncateLength)
}

// cleanAgentResponse removes reasoning tags, collapses blank lines, repairs
// empty "Action Input:" lines and wraps bare answers in "Final Answer:".
func (w *CleaningLLMWrapper) cleanAgentResponse(response string) string {
	cleaned := thinkBlockRegex.ReplaceAllString(response, "")
	cleaned = openThinkRegex.ReplaceAllString(cleaned, "")
	cleaned = reasoningBlockRegex.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = multiNewlineRegex.ReplaceAllString(cleaned, "\n\n")

	// The ReAct parser needs a value after "Action Input:"
	if emptyActionInputRegex.MatchString(cleaned) {
		w.logger.Debug("Detected empty Action Input field, adding empty string value")
		cleaned = emptyActionInputRegex.ReplaceAllString(cleaned, "Action Input: ")
	}

	hasAgentFormat := strings.Contains(cleaned, "Thought:") ||
		strings.Contains(cleaned, "Action:") ||
		strings.Contains(cleaned, "Final Answer:") ||
		strings.Contains(cleaned, "Observation:")

	if !hasAgentFormat && cleaned != "" {
		w.logger.WithFields(logrus.Fields{
			"originalLength": len(response),
			"cleanedLength":  len(cleaned),
		}).Info("Wrapping direct response in Final Answer format")
		cleaned = fmt.Sprintf("Thought: I can answer this directly.\nFinal Answer: %s", cleaned)
	}

	if cleaned == "" {
		return emptyResponseFallback
	}
	return cleaned
}

// GenerateContent implements llms.Model and cleans every returned choice.
func (w *CleaningLLMWrapper) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	response, err := w.wrappedLLM.GenerateContent(ctx, messages, options...)
	if err != nil {
		return response, err
	}

	if response != nil {
		for i := range response.Choices {
			original := response.Choices[i].Content
			cleaned := w.cleanAgentResponse(original)
			response.Choices[i].Content = cleaned

			if len(original) != len(cleaned) {
				w.logger.WithFields(logrus.Fields{
					"originalLength":  len(original),
					"cleanedLength":   len(cleaned),
					"originalPreview": w.truncateForLog(original),
				}).Debug("Cleaned LLM response content")
			}
		}
	}

	return response, nil
}

// Call implements llms.Model for plain prompt calls.
func (w *CleaningLLMWrapper) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, w, prompt, options...)
	if err != nil {
		return "", err
	}
	return response, nil
}

// RecoverFinalAnswer extracts a usable answer from an output the agent failed to parse.
func (w *CleaningLLMWrapper) RecoverFinalAnswer(raw string) (string, bool) {
	cleaned := w.cleanAgentResponse(raw)
	matches := finalAnswerRegex.FindStringSubmatch(cleaned)
	if len(matches) < 2 {
		return "", false
	}
	answer := strings.TrimSpace(matches[1])
	return answer, answer != ""
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

var _ llms.Model = (*CleaningLLMWrapper)(nil)
