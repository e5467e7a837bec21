package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Severity
	}{
		{"plain critical", "critical", SeverityCritical},
		{"uppercase", "HIGH", SeverityHigh},
		{"bracketed", "[Critical]", SeverityCritical},
		{"parenthesized", "(low)", SeverityLow},
		{"with colon", "Medium:", SeverityMedium},
		{"moderate alias", "moderate", SeverityMedium},
		{"minor alias", "minor", SeverityLow},
		{"crit alias", "crit", SeverityCritical},
		{"garbage", "catastrophic", SeverityUnknown},
		{"empty", "", SeverityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeverity(tt.input))
		})
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityUnknown.Rank())
}

func TestSeverityValid(t *testing.T) {
	for _, s := range Severities() {
		assert.True(t, s.Valid(), "severity %s should be valid", s)
	}
	assert.False(t, SeverityUnknown.Valid())
	assert.False(t, Severity("nope").Valid())
}

func TestPredictedIssueHasFix(t *testing.T) {
	assert.True(t, PredictedIssue{FixSnippet: "use placeholders"}.HasFix())
	assert.False(t, PredictedIssue{FixSnippet: ""}.HasFix())
	assert.False(t, PredictedIssue{FixSnippet: "  "}.HasFix())
	assert.False(t, PredictedIssue{FixSnippet: UnknownField}.HasFix())
}
