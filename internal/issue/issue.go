// Package issue defines the canonical representation of code-review
// findings: the ground-truth issues a corpus example carries, and the
// issues extracted from raw model output.
package issue

import (
	"strings"
)

// Severity is the severity of a code-review finding, ordered from
// Critical (highest) down to Low. Unknown is the sentinel for output the
// extractor could not classify.
type Severity string

const (
	// SeverityCritical represents a critical issue (security, data loss)
	SeverityCritical Severity = "critical"
	// SeverityHigh represents a high-severity issue (bugs, performance)
	SeverityHigh Severity = "high"
	// SeverityMedium represents a medium-severity issue (quality)
	SeverityMedium Severity = "medium"
	// SeverityLow represents a low-severity issue (style)
	SeverityLow Severity = "low"
	// SeverityUnknown marks a severity the extractor could not determine
	SeverityUnknown Severity = "unknown"
)

// UnknownField is the sentinel for issue fields that resembled an issue
// marker but could not be fully parsed.
const UnknownField = "unknown"

// severityRanks orders severities for comparison; higher is more severe.
var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordering rank of the severity. Unknown ranks below Low.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// Valid reports whether the severity is one of the four defined levels.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// ParseSeverity maps free text to a Severity. It accepts any casing and
// surrounding punctuation; unrecognized text maps to SeverityUnknown.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(strings.Trim(s, ":*()[]"))) {
	case "critical", "crit":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "med", "moderate":
		return SeverityMedium
	case "low", "minor":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Severities lists the defined levels in descending order.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// ExpectedIssue is a ground-truth finding attached to a corpus example.
// Immutable once loaded.
type ExpectedIssue struct {
	Title     string   `json:"title"`
	Severity  Severity `json:"severity"`
	Locations []string `json:"locations"` // e.g. "authenticate_user:12"
	Fix       string   `json:"fix"`
}

// PredictedIssue is a finding extracted from raw model output. Fields the
// extractor could not recover hold the UnknownField sentinel (strings) or
// SeverityUnknown.
type PredictedIssue struct {
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Locations   []string `json:"locations,omitempty"`
	Description string   `json:"description,omitempty"`
	FixSnippet  string   `json:"fix_snippet,omitempty"`
	// HasImpact is set when the description contains a consequence
	// statement distinct from the fix itself.
	HasImpact bool `json:"has_impact,omitempty"`
}

// HasFix reports whether the prediction carries a non-empty fix snippet.
func (p PredictedIssue) HasFix() bool {
	return strings.TrimSpace(p.FixSnippet) != "" && p.FixSnippet != UnknownField
}
