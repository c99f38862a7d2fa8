package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// VerboseCallbackHandler logs the chat agent's progress.
type VerboseCallbackHandler struct {
	callbacks.SimpleHandler
	requestLogger *logrus.Entry
	iteration     int
	step          int
	config        *Config
}

func NewVerboseCallbackHandler(requestLogger *logrus.Entry, config *Config) *VerboseCallbackHandler {
	return &VerboseCallbackHandler{
		requestLogger: requestLogger,
		config:        config,
	}
}

func (h *VerboseCallbackHandler) truncateForLog(text string) string {
	return truncate(text, h.config.LogTruncateLength)
}

func (h *VerboseCallbackHandler) fields() logrus.Fields {
	return logrus.Fields{"iteration": h.iteration, "step": h.step}
}

func (h *VerboseCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.requestLogger.WithFields(h.fields()).WithField("messageCount", len(ms)).Debug("LLM call beginning")
}

func (h *VerboseCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	response := ""
	if res != nil && len(res.Choices) > 0 {
		response = res.Choices[0].Content
	}
	h.requestLogger.WithFields(h.fields()).WithField("response", h.truncateForLog(response)).Debug("LLM content generation completed")
}

func (h *VerboseCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("LLM call failed")
}

func (h *VerboseCallbackHandler) HandleChainError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("Agent chain execution failed")
}

func (h *VerboseCallbackHandler) HandleToolStart(ctx context.Context, input string) {
	h.requestLogger.WithFields(h.fields()).WithField("input", input).Info("Tool execution started")
}

func (h *VerboseCallbackHandler) HandleToolEnd(ctx context.Context, output string) {
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"output":       h.truncateForLog(output),
		"outputLength": len(output),
	}).Info("Tool execution completed")
}

func (h *VerboseCallbackHandler) HandleToolError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("Tool execution failed")
}

func (h *VerboseCallbackHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	h.iteration++
	h.step = 0
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"action":    action.Tool,
		"input":     action.ToolInput,
		"reasoning": h.truncateForLog(action.Log),
	}).Info("Agent decided on action")
}

func (h *VerboseCallbackHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {
	output, _ := finish.ReturnValues["output"].(string)
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"finalResponse":   h.truncateForLog(output),
		"totalIterations": h.iteration,
	}).Info("Agent finished successfully")
}

// StreamingCallbackHandler logs like VerboseCallbackHandler and also reports
// tool activity to a /chat/stream client. Debug frames are only sent when debug is set.
type StreamingCallbackHandler struct {
	*VerboseCallbackHandler
	streamFunc func(msg StreamMessage)
	debug      bool
}

func NewStreamingCallbackHandler(requestLogger *logrus.Entry, config *Config, debug bool, streamFunc func(msg StreamMessage)) *StreamingCallbackHandler {
	return &StreamingCallbackHandler{
		VerboseCallbackHandler: NewVerboseCallbackHandler(requestLogger, config),
		streamFunc:             streamFunc,
		debug:                  debug,
	}
}

func (h *StreamingCallbackHandler) send(msg StreamMessage) {
	if h.streamFunc == nil || (msg.Debug && !h.debug) {
		return
	}
	h.streamFunc(msg)
}

func (h *StreamingCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.VerboseCallbackHandler.HandleLLMGenerateContentStart(ctx, ms)
	h.step++
	h.send(StreamMessage{
		Type:      "debug",
		Content:   "LLM call started",
		Debug:     true,
		Iteration: h.iteration,
		Step:      fmt.Sprintf("llm_start_%d", h.step),
		Details:   map[string]any{"messageCount": len(ms)},
	})
}

func (h *StreamingCallbackHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	h.VerboseCallbackHandler.HandleAgentAction(ctx, action)
	h.step++
	h.send(StreamMessage{
		Type:      "debug",
		Content:   "Agent reasoning",
		Debug:     true,
		Iteration: h.iteration,
		Step:      fmt.Sprintf("reasoning_%d", h.step),
		Details:   map[string]any{"log": h.truncateForLog(action.Log)},
	})
	h.send(StreamMessage{
		Type:      "tool",
		Content:   fmt.Sprintf("Calling %s", action.Tool),
		Tool:      action.Tool,
		Iteration: h.iteration,
		Step:      fmt.Sprintf("agent_action_%d", h.step),
		Details:   map[string]any{"toolInput": action.ToolInput},
	})
}

func (h *StreamingCallbackHandler) HandleToolEnd(ctx context.Context, output string) {
	h.VerboseCallbackHandler.HandleToolEnd(ctx, output)
	h.step++
	h.send(StreamMessage{
		Type:      "debug",
		Content:   "Tool execution completed",
		Debug:     true,
		Iteration: h.iteration,
		Step:      fmt.Sprintf("tool_end_%d", h.step),
		Details: map[string]any{
			"toolOutput":   h.truncateForLog(output),
			"outputLength": len(output),
		},
	})
}

func (h *StreamingCallbackHandler) HandleToolError(ctx context.Context, err error) {
	h.VerboseCallbackHandler.HandleToolError(ctx, err)
	h.send(StreamMessage{
		Type:      "debug",
		Content:   "Tool execution failed: " + err.Error(),
		Debug:     true,
		Iteration: h.iteration,
	})
}

var (
	_ callbacks.Handler = (*VerboseCallbackHandler)(nil)
	_ callbacks.Handler = (*StreamingCallbackHandler)(nil)
)
