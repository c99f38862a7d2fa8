package cortex

import (
	"encoding/json"
	"strings"
)

// Content item and tool result kinds understood by the accumulator.
const (
	ContentText        = "text"
	ContentToolResults = "tool_results"
	ToolResultJSON     = "json"
)

// Citation identifies a search result backing part of the answer. Both
// fields are passed through from the stream untouched and are null when absent.
type Citation struct {
	SourceID any `json:"source_id"`
	DocID    any `json:"doc_id"`
}

// Accumulated is the response assembled from a whole event stream.
type Accumulated struct {
	Text      string
	SQL       string
	Citations []Citation
}

type contentItem struct {
	Type        string          `json:"type"`
	Text        json.RawMessage `json:"text"`
	ToolResults json.RawMessage `json:"tool_results"`
}

type toolResults struct {
	Content []json.RawMessage `json:"content"`
}

type toolResultEntry struct {
	Type string          `json:"type"`
	JSON json.RawMessage `json:"json"`
}

type toolResultPayload struct {
	Text          json.RawMessage   `json:"text"`
	SQL           json.RawMessage   `json:"sql"`
	SearchResults []json.RawMessage `json:"searchResults"`
}

// Accumulator folds deltas into a running response. The zero value is ready to use.
// It is not safe for concurrent use; each request owns its own accumulator.
type Accumulator struct {
	text      strings.Builder
	sql       string
	citations []Citation
}

// Apply merges one delta into the accumulated state and returns the number
// of content items or tool result entries that were skipped as undecodable.
func (a *Accumulator) Apply(d Delta) int {
	skipped := 0
	for _, raw := range d.Content {
		var item contentItem
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped++
			continue
		}
		switch item.Type {
		case ContentText:
			a.text.WriteString(stringValue(item.Text))
		case ContentToolResults:
			skipped += a.applyToolResults(item.ToolResults)
		}
	}
	return skipped
}

func (a *Accumulator) applyToolResults(raw json.RawMessage) int {
	var results toolResults
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &results); err != nil {
			return 1
		}
	}

	skipped := 0
	for _, rawEntry := range results.Content {
		var entry toolResultEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			skipped++
			continue
		}
		if entry.Type != ToolResultJSON {
			continue
		}

		var payload toolResultPayload
		if len(entry.JSON) > 0 {
			if err := json.Unmarshal(entry.JSON, &payload); err != nil {
				skipped++
				continue
			}
		}

		a.text.WriteString(stringValue(payload.Text))
		if sql, ok := stringField(payload.SQL); ok {
			a.sql = sql
		}
		for _, rawRef := range payload.SearchResults {
			var c Citation
			if err := json.Unmarshal(rawRef, &c); err != nil {
				skipped++
				continue
			}
			a.citations = append(a.citations, c)
		}
	}
	return skipped
}

// Result returns a snapshot of the accumulated response.
func (a *Accumulator) Result() Accumulated {
	citations := make([]Citation, len(a.citations))
	copy(citations, a.citations)
	return Accumulated{
		Text:      a.text.String(),
		SQL:       a.sql,
		Citations: citations,
	}
}

func stringValue(raw json.RawMessage) string {
	s, _ := stringField(raw)
	return s
}

// stringField decodes raw as a JSON string; null, absent and non-string values report false.
func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}
