package cortex

import (
	"encoding/json"
)

// StatementResult is the outcome of a SQL statements call: either the
// endpoint's JSON body, verbatim, or an error description.
type StatementResult struct {
	Body  json.RawMessage
	Error string
}

// OK reports whether the statement produced a result set.
func (r *StatementResult) OK() bool {
	return r != nil && r.Error == ""
}

func (r StatementResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" || len(r.Body) == 0 {
		msg := r.Error
		if msg == "" {
			msg = "SQL API returned an empty body"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	if !json.Valid(r.Body) {
		return json.Marshal(string(r.Body))
	}
	return r.Body, nil
}

// AgentResult is the response of a full agent run. When Error is set the
// other fields are meaningless and only the error is serialized.
type AgentResult struct {
	Text      string
	Citations []Citation
	SQL       string
	Results   *StatementResult
	Error     string
}

func (r AgentResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(errorBody{Error: r.Error})
	}
	return json.Marshal(struct {
		Text      string           `json:"text"`
		Citations []Citation       `json:"citations"`
		SQL       string           `json:"sql"`
		Results   *StatementResult `json:"results"`
	}{
		Text:      r.Text,
		Citations: nonNil(r.Citations),
		SQL:       r.SQL,
		Results:   r.Results,
	})
}

// SearchResult is the response of a search-only run: text and citations,
// an error, or a gate rejection.
type SearchResult struct {
	Text      string
	Citations []Citation
	Error     string
	Rejection *Rejection
}

func (r SearchResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Rejection != nil:
		return json.Marshal(r.Rejection)
	case r.Error != "":
		return json.Marshal(errorBody{Error: r.Error})
	}
	return json.Marshal(struct {
		Text      string     `json:"text"`
		Citations []Citation `json:"citations"`
	}{
		Text:      r.Text,
		Citations: nonNil(r.Citations),
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func nonNil(c []Citation) []Citation {
	if c == nil {
		return []Citation{}
	}
	return c
}
