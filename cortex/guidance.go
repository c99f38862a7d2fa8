package cortex

// Guidance explains how to phrase a query for the search tool.
type Guidance struct {
	OriginalQuery string   `json:"original_query"`
	Guidance      string   `json:"guidance"`
	Steps         []string `json:"steps"`
	Example       string   `json:"example"`
	Note          string   `json:"note"`
}

// SearchGuidance returns query optimization advice. It performs no network access.
func SearchGuidance(query string) Guidance {
	return Guidance{
		OriginalQuery: query,
		Guidance:      "For optimal search results with Cortex Search:",
		Steps: []string{
			"1. If the query is in Japanese or non-English, translate it to English first",
			"2. Use specific technical terms and clear language",
			"3. Focus on key concepts (e.g., 'security', 'performance', 'configuration')",
			"4. Call run_cortex_search with the English version",
		},
		Example: "Query: 'Snowflakeの動的テーブル' → Translate to: 'Snowflake Dynamic Tables' → Better results",
		Note:    "The calling agent can handle translation itself - call run_cortex_search with English queries for best results",
	}
}
