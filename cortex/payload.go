package cortex

// Tool types understood by the agent run endpoint.
const (
	ToolTypeTextToSQL = "cortex_analyst_text_to_sql"
	ToolTypeSearch    = "cortex_search"
	ToolTypeSQLExec   = "sql_exec"
)

// AgentRequest is the body of an agent run call.
type AgentRequest struct {
	Model               string                  `json:"model"`
	ResponseInstruction string                  `json:"response_instruction"`
	Tools               []ToolEntry             `json:"tools"`
	ToolResources       map[string]ToolResource `json:"tool_resources"`
	ToolChoice          ToolChoice              `json:"tool_choice"`
	Messages            []Message               `json:"messages"`
}

type ToolEntry struct {
	ToolSpec ToolSpec `json:"tool_spec"`
}

type ToolSpec struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ToolResource binds a tool to the resource it operates on.
type ToolResource struct {
	SemanticModelFile string `json:"semantic_model_file,omitempty"`
	Name              string `json:"name,omitempty"`
}

type ToolChoice struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string           `json:"role"`
	Content []MessageContent `json:"content"`
}

type MessageContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StatementRequest is the body of a SQL statements call.
type StatementRequest struct {
	Statement string `json:"statement"`
	Timeout   int    `json:"timeout"`
}

// Resources names the server-side objects the agent tools are bound to.
type Resources struct {
	SearchService     string
	SemanticModelFile string
}

// agentRequest builds the full agent body. The text-to-SQL tool is only
// offered when a semantic model file is bound.
func (p Profile) agentRequest(query string, res Resources) AgentRequest {
	req := AgentRequest{
		Model:               p.Model,
		ResponseInstruction: p.ResponseInstruction,
		ToolResources:       make(map[string]ToolResource),
		ToolChoice:          ToolChoice{Type: p.ToolChoice},
		Messages:            userMessage(query),
	}

	if res.SemanticModelFile != "" {
		req.Tools = append(req.Tools, ToolEntry{ToolSpec{Type: ToolTypeTextToSQL, Name: p.AnalystToolName}})
		req.ToolResources[p.AnalystToolName] = ToolResource{SemanticModelFile: res.SemanticModelFile}
	}
	req.Tools = append(req.Tools,
		ToolEntry{ToolSpec{Type: ToolTypeSearch, Name: p.SearchToolName}},
		ToolEntry{ToolSpec{Type: ToolTypeSQLExec, Name: p.SQLExecToolName}},
	)
	req.ToolResources[p.SearchToolName] = ToolResource{Name: res.SearchService}
	return req
}

func (p Profile) searchRequest(query string, res Resources) AgentRequest {
	return AgentRequest{
		Model:               p.Model,
		ResponseInstruction: p.SearchResponseInstruction,
		Tools:               []ToolEntry{{ToolSpec{Type: ToolTypeSearch, Name: p.SearchToolName}}},
		ToolResources: map[string]ToolResource{
			p.SearchToolName: {Name: res.SearchService},
		},
		ToolChoice: ToolChoice{Type: p.ToolChoice},
		Messages:   userMessage(query),
	}
}

func userMessage(query string) []Message {
	return []Message{{
		Role:    "user",
		Content: []MessageContent{{Type: "text", Text: query}},
	}}
}
