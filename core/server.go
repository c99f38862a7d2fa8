package core

import (
	"net/http"
	"strings"
	"time"

	"cortexbridge/cortex"
	localtools "cortexbridge/tools"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

type Server struct {
	runner        localtools.Runner
	toolsList     []tools.Tool
	chat          *ChatHost // nil when no LLM could be initialized
	cancelManager *CancelManager
	config        *Config
	logger        *logrus.Logger
}

// NewServer creates a new server instance with all dependencies initialized
func NewServer(config *Config, logger *logrus.Logger) (*Server, error) {
	logger.Info("Starting server initialization")

	client, err := NewCortexClient(config, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Cortex client")
		return nil, err
	}

	s := newServer(client, config, logger)

	llm, err := NewLLM(config, logger.WithField("component", "llm"))
	if err != nil {
		// The operation routes work without a chat model.
		logger.WithError(err).Warn("Chat host disabled")
	} else {
		wrapped := NewCleaningLLMWrapper(llm, config, logger.WithField("component", "llm"))
		s.chat = NewChatHost(wrapped, s.toolsList, config)
	}

	logger.WithFields(logrus.Fields{
		"tools":       len(s.toolsList),
		"chatEnabled": s.chat != nil,
	}).Info("Server initialization completed")
	return s, nil
}

// NewCortexClient builds the Cortex client described by config.
func NewCortexClient(config *Config, logger *logrus.Logger) (*cortex.Client, error) {
	settings, err := config.CortexSettings()
	if err != nil {
		return nil, err
	}

	opts := []cortex.Option{cortex.WithLogger(logger.WithField("component", "cortex"))}
	if !config.LanguageGate {
		opts = append(opts, cortex.WithSearchGates())
	}
	return cortex.NewClient(settings, opts...), nil
}

func newServer(runner localtools.Runner, config *Config, logger *logrus.Logger) *Server {
	return &Server{
		runner:        runner,
		toolsList:     localtools.CortexTools(runner, logger.WithField("component", "tools")),
		cancelManager: NewCancelManager(),
		config:        config,
		logger:        logger,
	}
}

func (s *Server) requestLogger(c echo.Context) *logrus.Entry {
	requestID := c.Request().Header.Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"endpoint":  c.Path(),
		"method":    c.Request().Method,
		"clientIP":  c.RealIP(),
	})
}

// bindQuery reads a QueryRequest and rejects blank queries with a 400.
func bindQuery(c echo.Context, requestLogger *logrus.Entry) (string, error) {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse request body")
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		requestLogger.Warn("Empty query in request")
		return "", echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	return query, nil
}

func (s *Server) handleAgent(c echo.Context) error {
	requestLogger := s.requestLogger(c)
	query, err := bindQuery(c, requestLogger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result := s.runner.RunAgent(c.Request().Context(), query)
	requestLogger.WithFields(logrus.Fields{
		"executionTime": time.Since(startTime),
		"failed":        result.Error != "",
		"hasSQL":        result.SQL != "",
	}).Info("Agent request completed")

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleSearch(c echo.Context) error {
	requestLogger := s.requestLogger(c)
	query, err := bindQuery(c, requestLogger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result := s.runner.RunSearch(c.Request().Context(), query)
	requestLogger.WithFields(logrus.Fields{
		"executionTime": time.Since(startTime),
		"failed":        result.Error != "",
		"rejected":      result.Rejection != nil,
	}).Info("Search request completed")

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGuidance(c echo.Context) error {
	query, err := bindQuery(c, s.requestLogger(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cortex.SearchGuidance(query))
}

func (s *Server) handleListTools(c echo.Context) error {
	infos := make([]ToolInfo, 0, len(s.toolsList))
	for _, tool := range s.toolsList {
		infos = append(infos, ToolInfo{Name: tool.Name(), Description: tool.Description()})
	}
	return c.JSON(http.StatusOK, infos)
}

func (s *Server) handleCallTool(c echo.Context) error {
	requestLogger := s.requestLogger(c)
	name := c.Param("name")

	tool, ok := localtools.Find(s.toolsList, name)
	if !ok {
		requestLogger.WithField("tool", name).Warn("Unknown tool requested")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown tool: " + name})
	}

	var req ToolCallRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse tool call body")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Input) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "input is required"})
	}

	output, err := tool.Call(c.Request().Context(), req.Input)
	if err != nil {
		requestLogger.WithError(err).WithField("tool", name).Error("Tool call failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, ToolCallResponse{Tool: name, Output: output})
}

func (s *Server) handleStatus(c echo.Context) error {
	activeExecutions := s.cancelManager.GetActiveExecutions()

	toolNames := make([]string, 0, len(s.toolsList))
	for _, tool := range s.toolsList {
		toolNames = append(toolNames, tool.Name())
	}

	response := map[string]any{
		"status":           "healthy",
		"tools":            toolNames,
		"chatEnabled":      s.chat != nil,
		"activeExecutions": activeExecutions,
		"executionCount":   len(activeExecutions),
	}

	s.requestLogger(c).WithField("activeExecutions", len(activeExecutions)).Debug("Status check completed")
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleStopExecution(c echo.Context) error {
	requestLogger := s.requestLogger(c)

	var req StopRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse stop request body")
		return c.JSON(http.StatusBadRequest, StopResponse{Message: "Invalid request format"})
	}
	if req.ExecutionID == "" {
		return c.JSON(http.StatusBadRequest, StopResponse{Message: "Execution ID is required"})
	}

	requestLogger = requestLogger.WithField("executionID", req.ExecutionID)
	if !s.cancelManager.CancelExecution(req.ExecutionID) {
		requestLogger.Warn("Execution not found or already completed")
		return c.JSON(http.StatusNotFound, StopResponse{Message: "Execution not found or already completed"})
	}

	requestLogger.Info("Execution stopped successfully")
	return c.JSON(http.StatusOK, StopResponse{
		Success: true,
		Message: "Execution stopped successfully",
		Stopped: true,
	})
}

// RegisterRoutes registers all HTTP routes for the server
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/agent", s.handleAgent)
	e.POST("/search", s.handleSearch)
	e.POST("/search/guidance", s.handleGuidance)
	e.GET("/tools", s.handleListTools)
	e.POST("/tools/:name", s.handleCallTool)

	e.POST("/chat", s.handleChat)
	e.POST("/chat/stream", s.handleStreamChat)
	e.POST("/stop", s.handleStopExecution)
	e.GET("/status", s.handleStatus)

	s.logger.Info("Routes registered successfully")
}
