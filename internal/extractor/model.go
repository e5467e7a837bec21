package extractor

import (
	"github.com/skillforge/skillforge/internal/issue"
)

// ParseStatus tags how much of the model output the extractor could
// structure. It is data, not an error: downstream matching always receives
// a well-defined Extraction.
type ParseStatus string

const (
	// StatusFull means every detected issue was fully structured
	StatusFull ParseStatus = "full"
	// StatusPartial means some issues carry unknown-sentinel fields
	StatusPartial ParseStatus = "partial"
	// StatusUnparseable means the text resembled a review but yielded no
	// structured issues
	StatusUnparseable ParseStatus = "unparseable"
)

// Extraction is the result of parsing one block of model output.
type Extraction struct {
	Status ParseStatus
	Issues []issue.PredictedIssue
}

// jsonIssue is the intermediate shape for JSON review payloads. Field types
// are loose because models are inconsistent about numbers vs strings.
type jsonIssue struct {
	Title       string      `json:"title"`
	Severity    string      `json:"severity"`
	Location    string      `json:"location"`
	Locations   []string    `json:"locations"`
	LineStart   interface{} `json:"line_start"`
	Function    string      `json:"function"`
	Description string      `json:"description"`
	Impact      string      `json:"impact"`
	Suggestion  string      `json:"suggestion"`
	Fix         string      `json:"fix"`
	CodeSnippet string      `json:"code_snippet"`
}

type jsonReview struct {
	Issues []jsonIssue `json:"issues"`
}
