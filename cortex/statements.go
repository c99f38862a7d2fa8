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
	statementsPath = "/api/v2/statements"

	// DefaultStatementTimeout is the server-side timeout hint, in seconds.
	DefaultStatementTimeout = 60

	// statementClientMargin is added to the server-side hint for the client deadline.
	statementClientMargin = 30 * time.Second
)

// StatementExecutor runs SQL produced by the agent against the statements endpoint.
type StatementExecutor struct {
	baseURL    string
	token      string
	timeout    int
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewStatementExecutor creates an executor. A timeoutSeconds of zero or less
// selects DefaultStatementTimeout; a nil httpClient gets one bounded by the hint.
func NewStatementExecutor(baseURL, token string, timeoutSeconds int, httpClient *http.Client, logger *logrus.Entry) *StatementExecutor {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultStatementTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: time.Duration(timeoutSeconds)*time.Second + statementClientMargin,
		}
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &StatementExecutor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		timeout:    timeoutSeconds,
		httpClient: httpClient,
		logger:     logger.WithField("component", "statements"),
	}
}

// Execute runs sql and always returns a result; failures are reported in
// StatementResult.Error rather than as a Go error.
func (e *StatementExecutor) Execute(ctx context.Context, sql string) *StatementResult {
	requestID := uuid.New().String()
	logger := e.logger.WithField("requestId", requestID)

	body, err := e.execute(ctx, requestID, sql)
	if err != nil {
		var statusErr *UpstreamStatusError
		if errors.As(err, &statusErr) {
			logger.WithField("status", statusErr.StatusCode).Warn("SQL API returned an error status")
			return &StatementResult{Error: "SQL API error: " + statusErr.Error()}
		}
		logger.WithError(err).Error("SQL execution failed")
		return &StatementResult{Error: fmt.Sprintf("SQL execution error: %v", err)}
	}

	logger.WithField("bodyLength", len(body)).Info("SQL statement executed")
	return &StatementResult{Body: body}
}

func (e *StatementExecutor) execute(ctx context.Context, requestID, sql string) (json.RawMessage, error) {
	payload, err := json.Marshal(StatementRequest{
		Statement: strings.ReplaceAll(sql, ";", ""),
		Timeout:   e.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode statement: %w", err)
	}

	endpoint := e.baseURL + statementsPath + "?" + url.Values{"requestId": {requestID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Op: "build statement request", Err: err}
	}
	setAuthHeaders(req.Header, e.token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post statement", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read statement response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

const (
	tokenTypeHeader = "X-Snowflake-Authorization-Token-Type"
	tokenTypePAT    = "PROGRAMMATIC_ACCESS_TOKEN"
)

func setAuthHeaders(h http.Header, token string) {
	h.Set("Authorization", "Bearer "+token)
	h.Set(tokenTypeHeader, tokenTypePAT)
	h.Set("Content-Type", "application/json")
}
