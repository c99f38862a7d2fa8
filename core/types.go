/*
Package core contains the request and response types of the bridge's HTTP API.

Key type categories:
- Operation requests (QueryRequest, ToolCallRequest)
- Chat host types (ChatRequest, ChatResponse, StreamMessage)
- Execution control types (StopRequest, StopResponse)
*/
package core

// QueryRequest is the body of the agent, search and guidance operations.
type QueryRequest struct {
	Query string `json:"query"`
}

// ToolCallRequest dispatches raw input to a registered tool.
type ToolCallRequest struct {
	Input string `json:"input"`
}

// ToolCallResponse carries a tool's output verbatim.
type ToolCallResponse struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChatRequest is a single-turn question for the chat host agent.
type ChatRequest struct {
	Message string `json:"message"`
	Debug   bool   `json:"debug,omitempty"` // Stream internal agent steps as debug messages
}

// ChatResponse is the chat host agent's final answer.
type ChatResponse struct {
	Response string `json:"response"`
}

// StreamMessage is one SSE frame sent to /chat/stream clients. Type is one of
// "thinking", "tool", "response", "error", "debug", "execution_started", "stopped".
type StreamMessage struct {
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Tool      string         `json:"tool,omitempty"`
	Complete  bool           `json:"complete"`
	Debug     bool           `json:"debug,omitempty"`
	Iteration int            `json:"iteration,omitempty"`
	Step      string         `json:"step,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// StopRequest asks the server to cancel a running chat execution.
type StopRequest struct {
	ExecutionID string `json:"executionId"`
}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stopped bool   `json:"stopped"`
}
