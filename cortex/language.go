package cortex

import (
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/rangetable"
)

// Gate screens a query before any network call is made. A non-nil
// Rejection is returned to the caller in place of a search result.
type Gate interface {
	Screen(query string) *Rejection
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(query string) *Rejection

func (f GateFunc) Screen(query string) *Rejection { return f(query) }

// Rejection is the response returned when a gate refuses a query.
type Rejection struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	OriginalQuery string `json:"original_query"`
	Instruction   string `json:"instruction"`
	Example       string `json:"example"`
	Note          string `json:"note"`
}

// StatusTranslationRequired marks a query rejected for not being in English.
const StatusTranslationRequired = "TRANSLATION_REQUIRED"

// japaneseScript covers Hiragana, Katakana and the CJK unified ideographs block.
var japaneseScript = rangetable.Merge(
	&unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x3040, Hi: 0x309F, Stride: 1}}},
	&unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x30A0, Hi: 0x30FF, Stride: 1}}},
	&unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FAF, Stride: 1}}},
)

// ContainsJapanese reports whether text contains Japanese script. The text
// is NFKC-normalized first so half-width katakana is detected as well.
func ContainsJapanese(text string) bool {
	for _, r := range norm.NFKC.String(text) {
		if unicode.Is(japaneseScript, r) {
			return true
		}
	}
	return false
}

// JapaneseScriptGate rejects queries written in Japanese and asks the
// caller to resubmit an English translation.
type JapaneseScriptGate struct {
	// ToolName is the operation the caller is asked to call again.
	ToolName string
}

func (g JapaneseScriptGate) Screen(query string) *Rejection {
	if !ContainsJapanese(query) {
		return nil
	}
	name := g.ToolName
	if name == "" {
		name = "run_cortex_search"
	}
	return &Rejection{
		Status:        StatusTranslationRequired,
		Error:         "Japanese query detected - English translation required",
		OriginalQuery: query,
		Instruction:   fmt.Sprintf("Please translate this Japanese query to English and call %s again with the English version.", name),
		Example:       fmt.Sprintf("Original: '%s' → Translate to English → Call %s('English translation')", query, name),
		Note:          "This tool only processes English queries for optimal search results.",
	}
}
