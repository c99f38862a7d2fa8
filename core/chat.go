package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/tools"
)

var errChatUnavailable = errors.New("chat is unavailable: no LLM is configured")

// ChatHost answers free-form questions with a ReAct agent driving the Cortex tools.
// Every request builds its own executor so callback state is never shared.
type ChatHost struct {
	llm       *CleaningLLMWrapper
	toolsList []tools.Tool
	config    *Config
}

func NewChatHost(llm *CleaningLLMWrapper, toolsList []tools.Tool, config *Config) *ChatHost {
	return &ChatHost{llm: llm, toolsList: toolsList, config: config}
}

// Run executes one single-turn conversation and returns the final answer.
func (h *ChatHost) Run(ctx context.Context, message string, handler callbacks.Handler) (string, error) {
	executor, err := agents.Initialize(
		h.llm,
		h.toolsList,
		agents.ZeroShotReactDescription,
		agents.WithPrompt(CreateCortexPrompt(h.toolsList)),
		agents.WithMaxIterations(h.config.MaxIterations),
		agents.WithCallbacksHandler(handler),
	)
	if err != nil {
		return "", fmt.Errorf("failed to initialize agent executor: %w", err)
	}

	result, err := chains.Run(ctx, executor, message)
	if err != nil {
		if errors.Is(err, agents.ErrUnableToParseOutput) {
			raw := strings.TrimPrefix(err.Error(), agents.ErrUnableToParseOutput.Error()+": ")
			if answer, ok := h.llm.RecoverFinalAnswer(raw); ok {
				return answer, nil
			}
		}
		return "", err
	}
	return strings.TrimSpace(result), nil
}

func getErrorMessage(err error) string {
	errorMsg := "I encountered an error processing your request. "
	switch {
	case errors.Is(err, errChatUnavailable):
		errorMsg += "No chat model is configured on this server."
	case errors.Is(err, agents.ErrUnableToParseOutput):
		errorMsg += "The agent had trouble interpreting the tool output. Please try rephrasing your request."
	case errors.Is(err, agents.ErrNotFinished):
		errorMsg += "The request required too many steps to complete. Please try a more specific question."
	case errors.Is(err, context.DeadlineExceeded):
		errorMsg += "The request timed out. Please try a simpler request."
	default:
		errorMsg += "Please try again or contact support if the issue persists."
	}
	return errorMsg
}

func (s *Server) bindChat(c echo.Context, requestLogger *logrus.Entry) (ChatRequest, error) {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse request body")
		return req, echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return req, echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	return req, nil
}

func (s *Server) handleChat(c echo.Context) error {
	requestLogger := s.requestLogger(c)
	req, err := s.bindChat(c, requestLogger)
	if err != nil {
		return err
	}
	if s.chat == nil {
		return c.JSON(http.StatusServiceUnavailable, ChatResponse{Response: getErrorMessage(errChatUnavailable)})
	}

	requestLogger.WithField("messageLength", len(req.Message)).Info("Received chat request")

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.chat.Run(ctx, req.Message, NewVerboseCallbackHandler(requestLogger, s.config))
	executionTime := time.Since(startTime)

	if err != nil {
		requestLogger.WithError(err).WithField("executionTime", executionTime).Error("Agent execution failed")
		return c.JSON(http.StatusOK, ChatResponse{Response: getErrorMessage(err)})
	}

	requestLogger.WithFields(logrus.Fields{
		"executionTime":  executionTime,
		"responseLength": len(result),
		"response":       truncate(result, s.config.LogTruncateLength),
	}).Info("Agent execution completed successfully")

	return c.JSON(http.StatusOK, ChatResponse{Response: result})
}

func (s *Server) handleStreamChat(c echo.Context) error {
	requestLogger := s.requestLogger(c)
	req, err := s.bindChat(c, requestLogger)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	if s.chat == nil {
		s.sendStreamMessage(c, StreamMessage{Type: "error", Content: getErrorMessage(errChatUnavailable), Complete: true})
		return nil
	}

	executionID := uuid.NewString()
	requestLogger = requestLogger.WithField("executionID", executionID)

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	s.cancelManager.AddExecution(executionID, cancel)
	defer func() {
		s.cancelManager.RemoveExecution(executionID)
		cancel()
	}()

	s.sendStreamMessage(c, StreamMessage{Type: "execution_started", Content: executionID})
	s.sendStreamMessage(c, StreamMessage{Type: "thinking", Content: "Processing your request..."})

	handler := NewStreamingCallbackHandler(requestLogger, s.config, req.Debug || s.config.DebugMode, func(msg StreamMessage) {
		s.sendStreamMessage(c, msg)
	})

	startTime := time.Now()
	result, err := s.chat.Run(ctx, req.Message, handler)
	executionTime := time.Since(startTime)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			requestLogger.Info("Streaming execution stopped")
			s.sendStreamMessage(c, StreamMessage{Type: "stopped", Content: "Agent execution was stopped", Complete: true})
			return nil
		}
		requestLogger.WithError(err).WithField("executionTime", executionTime).Error("Streaming agent execution failed")
		s.sendStreamMessage(c, StreamMessage{Type: "error", Content: getErrorMessage(err), Complete: true})
		return nil
	}

	requestLogger.WithFields(logrus.Fields{
		"executionTime":  executionTime,
		"responseLength": len(result),
	}).Info("Streaming execution completed successfully")

	s.sendStreamMessage(c, StreamMessage{Type: "response", Content: result, Complete: true})
	return nil
}

func (s *Server) sendStreamMessage(c echo.Context, msg StreamMessage) {
	data, _ := json.Marshal(msg)
	fmt.Fprintf(c.Response(), "data: %s\n\n", data)
	c.Response().Flush()
}
