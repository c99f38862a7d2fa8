/*
Package cortex talks to the Cortex agent service on behalf of a caller.

A query is posted to the agent run endpoint, the streamed reply is decoded
frame by frame into answer text, generated SQL and search citations, and
when the agent produced SQL the statement is executed against the SQL
statements endpoint. Every public operation returns a value; failures are
folded into the result's error field so callers never handle transport
errors themselves.
*/
package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	agentRunPath = "/api/v2/cortex/agent:run"

	// DefaultAgentTimeout bounds an agent run end to end, stream included.
	DefaultAgentTimeout = 60 * time.Second
)

// Settings holds everything a Client needs to reach the service.
type Settings struct {
	BaseURL          string
	Token            string
	Resources        Resources
	Profile          Profile
	AgentTimeout     time.Duration
	StatementTimeout int // seconds, sent as the server-side hint
}

// Executor runs a SQL statement and reports its outcome.
type Executor interface {
	Execute(ctx context.Context, sql string) *StatementResult
}

// Client runs agent and search queries. It is safe for concurrent use: each
// call owns its request, response body and accumulator.
type Client struct {
	settings   Settings
	httpClient *http.Client
	executor   Executor
	gates      []Gate
	logger     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for agent runs.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithExecutor replaces the SQL statement executor.
func WithExecutor(x Executor) Option {
	return func(c *Client) { c.executor = x }
}

// WithSearchGates sets the pre-checks applied to search queries.
func WithSearchGates(gates ...Gate) Option {
	return func(c *Client) { c.gates = gates }
}

// WithLogger sets the logger entry the client derives its loggers from.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client. Unset settings fall back to the defaults.
func NewClient(settings Settings, opts ...Option) *Client {
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if settings.AgentTimeout <= 0 {
		settings.AgentTimeout = DefaultAgentTimeout
	}
	if settings.StatementTimeout <= 0 {
		settings.StatementTimeout = DefaultStatementTimeout
	}
	if settings.Profile.Model == "" {
		settings.Profile = DefaultProfile()
	}

	c := &Client{
		settings: settings,
		gates:    []Gate{JapaneseScriptGate{}},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c.logger = c.logger.WithField("component", "cortex")
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: settings.AgentTimeout}
	}
	if c.executor == nil {
		c.executor = NewStatementExecutor(settings.BaseURL, settings.Token, settings.StatementTimeout, nil, c.logger)
	}
	return c
}

// RunAgent sends query to the full agent, which may answer from search,
// generate SQL, or both. Generated SQL is executed and its result attached.
func (c *Client) RunAgent(ctx context.Context, query string) AgentResult {
	requestID := uuid.New().String()
	logger := c.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"operation": "agent",
	})
	logger.WithField("queryLength", len(query)).Info("Running agent query")

	body := c.settings.Profile.agentRequest(query, c.settings.Resources)
	acc, err := c.stream(ctx, requestID, body, FullAgent, logger)
	if err != nil {
		logger.WithError(err).Error("Agent run failed")
		return AgentResult{Error: describe(err)}
	}

	result := AgentResult{
		Text:      acc.Text,
		Citations: acc.Citations,
		SQL:       acc.SQL,
	}
	if acc.SQL != "" {
		logger.Debug("Agent produced SQL, executing statement")
		result.Results = c.executor.Execute(ctx, acc.SQL)
	}

	logger.WithFields(logrus.Fields{
		"textLength": len(result.Text),
		"citations":  len(result.Citations),
		"hasSQL":     result.SQL != "",
		"sqlOK":      result.Results.OK(),
	}).Info("Agent query completed")
	return result
}

// RunSearch sends query to a search-only agent. Queries refused by a gate
// are answered without contacting the service.
func (c *Client) RunSearch(ctx context.Context, query string) SearchResult {
	requestID := uuid.New().String()
	logger := c.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"operation": "search",
	})

	for _, gate := range c.gates {
		if rejection := gate.Screen(query); rejection != nil {
			logger.WithField("status", rejection.Status).Info("Search query rejected by gate")
			return SearchResult{Rejection: rejection}
		}
	}
	logger.WithField("queryLength", len(query)).Info("Running search query")

	body := c.settings.Profile.searchRequest(query, c.settings.Resources)
	acc, err := c.stream(ctx, requestID, body, SearchOnly, logger)
	if err != nil {
		logger.WithError(err).Error("Search run failed")
		return SearchResult{Error: describe(err)}
	}

	logger.WithFields(logrus.Fields{
		"textLength": len(acc.Text),
		"citations":  len(acc.Citations),
	}).Info("Search query completed")
	return SearchResult{Text: acc.Text, Citations: acc.Citations}
}

// stream posts body to the agent run endpoint and assembles the event stream.
// The response body is closed before it returns on every path.
func (c *Client) stream(ctx context.Context, requestID string, body AgentRequest, mode AssembleMode, logger *logrus.Entry) (Accumulated, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.AgentTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return Accumulated{}, fmt.Errorf("failed to encode agent request: %w", err)
	}

	endpoint := c.settings.BaseURL + agentRunPath + "?" + url.Values{"requestId": {requestID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Accumulated{}, &TransportError{Op: "build agent request", Err: err}
	}
	setAuthHeaders(req.Header, c.settings.Token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Accumulated{}, &TransportError{Op: "post agent request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return Accumulated{}, &UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return Assemble(ctx, resp.Body, mode, logger)
}

// describe renders an error for the result's error field.
func describe(err error) string {
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return fmt.Sprintf("Request failed: %v", err)
}
