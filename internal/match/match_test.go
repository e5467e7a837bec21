package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/issue"
)

func TestMatchPairsSimilarIssues(t *testing.T) {
	m := New(DefaultConfig())

	predicted := []issue.PredictedIssue{
		{
			Title:       "SQL injection vulnerability in login",
			Severity:    issue.SeverityCritical,
			Description: "User input is concatenated directly into the SQL query",
			Locations:   []string{"authenticate_user:12"},
		},
		{
			Title:    "Variable naming could be clearer",
			Severity: issue.SeverityLow,
		},
	}
	expected := []issue.ExpectedIssue{
		{
			Title:     "SQL injection in authenticate_user",
			Severity:  issue.SeverityCritical,
			Locations: []string{"authenticate_user:12"},
			Fix:       "Use parameterized SQL query instead of concatenation",
		},
		{
			Title:    "Password stored in plain text",
			Severity: issue.SeverityHigh,
		},
	}

	res := m.Match(predicted, expected)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "SQL injection in authenticate_user", res.Pairs[0].Expected.Title)
	assert.True(t, res.Pairs[0].SeverityMatch)
	require.Len(t, res.FalsePositives, 1)
	assert.Equal(t, "Variable naming could be clearer", res.FalsePositives[0].Title)
	require.Len(t, res.FalseNegatives, 1)
	assert.Equal(t, "Password stored in plain text", res.FalseNegatives[0].Title)
}

func TestMatchExhaustivePartition(t *testing.T) {
	m := New(DefaultConfig())

	predicted := []issue.PredictedIssue{
		{Title: "buffer overflow in parser", Description: "parser overruns the buffer"},
		{Title: "unrelated style remark about whitespace"},
	}
	expected := []issue.ExpectedIssue{
		{Title: "buffer overflow in parser", Severity: issue.SeverityCritical},
		{Title: "leaked file descriptor", Severity: issue.SeverityMedium},
	}

	res := m.Match(predicted, expected)

	assert.Equal(t, len(predicted), res.PredictedCount())
	assert.Equal(t, len(expected), res.ExpectedCount())
	assert.Equal(t, res.Matched()+len(res.FalsePositives), res.PredictedCount())
	assert.Equal(t, res.Matched()+len(res.FalseNegatives), res.ExpectedCount())
}

func TestMatchEmptySets(t *testing.T) {
	m := New(DefaultConfig())

	t.Run("no predictions", func(t *testing.T) {
		res := m.Match(nil, []issue.ExpectedIssue{{Title: "missing check", Severity: issue.SeverityHigh}})
		assert.Zero(t, res.Matched())
		assert.Len(t, res.FalseNegatives, 1)
	})

	t.Run("no expectations", func(t *testing.T) {
		res := m.Match([]issue.PredictedIssue{{Title: "phantom issue"}}, nil)
		assert.Zero(t, res.Matched())
		assert.Len(t, res.FalsePositives, 1)
	})

	t.Run("both empty", func(t *testing.T) {
		res := m.Match(nil, nil)
		assert.Zero(t, res.Matched())
		assert.Empty(t, res.FalsePositives)
		assert.Empty(t, res.FalseNegatives)
	})
}

func TestMatchSeverityMismatchStillPairs(t *testing.T) {
	m := New(DefaultConfig())

	predicted := []issue.PredictedIssue{
		{Title: "race condition in counter update", Severity: issue.SeverityMedium},
	}
	expected := []issue.ExpectedIssue{
		{Title: "race condition in counter update", Severity: issue.SeverityHigh},
	}

	res := m.Match(predicted, expected)

	require.Len(t, res.Pairs, 1)
	assert.False(t, res.Pairs[0].SeverityMatch)
}

func TestMatchTieBreaksTowardHigherSeverity(t *testing.T) {
	m := New(DefaultConfig())

	// One prediction equally similar to two expected issues: the critical
	// one must win the pairing.
	predicted := []issue.PredictedIssue{
		{Title: "unvalidated input"},
	}
	expected := []issue.ExpectedIssue{
		{Title: "unvalidated input", Severity: issue.SeverityLow},
		{Title: "unvalidated input", Severity: issue.SeverityCritical},
	}

	res := m.Match(predicted, expected)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, issue.SeverityCritical, res.Pairs[0].Expected.Severity)
	require.Len(t, res.FalseNegatives, 1)
	assert.Equal(t, issue.SeverityLow, res.FalseNegatives[0].Severity)
}

func TestMatchBelowThresholdIgnored(t *testing.T) {
	m := New(Config{Threshold: 0.9, TextWeight: 0.7, LocationWeight: 0.3})

	predicted := []issue.PredictedIssue{
		{Title: "some vaguely related finding about memory"},
	}
	expected := []issue.ExpectedIssue{
		{Title: "memory leak in connection pool", Severity: issue.SeverityHigh},
	}

	res := m.Match(predicted, expected)
	assert.Zero(t, res.Matched())
}

func TestSimilarity(t *testing.T) {
	m := New(DefaultConfig())

	t.Run("identical titles score high", func(t *testing.T) {
		sim := m.Similarity(
			issue.PredictedIssue{Title: "sql injection in login handler"},
			issue.ExpectedIssue{Title: "sql injection in login handler"},
		)
		assert.InDelta(t, 1.0, sim, 0.001)
	})

	t.Run("disjoint text scores zero", func(t *testing.T) {
		sim := m.Similarity(
			issue.PredictedIssue{Title: "alpha beta"},
			issue.ExpectedIssue{Title: "gamma delta"},
		)
		assert.Zero(t, sim)
	})

	t.Run("location overlap raises the blend", func(t *testing.T) {
		withLoc := m.Similarity(
			issue.PredictedIssue{Title: "overflow check missing", Locations: []string{"parse_header:33"}},
			issue.ExpectedIssue{Title: "overflow check missing in header parser", Locations: []string{"parse_header:33"}},
		)
		withoutLoc := m.Similarity(
			issue.PredictedIssue{Title: "overflow check missing"},
			issue.ExpectedIssue{Title: "overflow check missing in header parser"},
		)
		assert.Greater(t, withLoc, withoutLoc)
	})

	t.Run("function prefix counts as location hit", func(t *testing.T) {
		sim := m.Similarity(
			issue.PredictedIssue{Title: "off by one error", Locations: []string{"copy_buffer:10"}},
			issue.ExpectedIssue{Title: "off by one error", Locations: []string{"copy_buffer:14"}},
		)
		assert.InDelta(t, 1.0, sim, 0.001)
	})

	t.Run("unknown sentinel contributes no tokens", func(t *testing.T) {
		sim := m.Similarity(
			issue.PredictedIssue{Title: issue.UnknownField},
			issue.ExpectedIssue{Title: "unknown caller passes unknown value"},
		)
		assert.Zero(t, sim)
	})
}
