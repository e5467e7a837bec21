package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithOverall(id, name string, overall float64) *EvaluationRun {
	return &EvaluationRun{
		ID:   id,
		Name: name,
		Metrics: RunMetrics{
			Overall:   MetricStats{Mean: overall, N: 10},
			Precision: MetricStats{Mean: 0.8, N: 10},
		},
	}
}

func TestCompareVerdicts(t *testing.T) {
	tests := []struct {
		name      string
		baseline  float64
		candidate float64
		noise     float64
		verdict   Verdict
	}{
		{"clear improvement", 0.60, 0.70, 0.01, VerdictImproved},
		{"clear regression", 0.70, 0.55, 0.01, VerdictRegressed},
		{"movement within noise", 0.600, 0.603, 0.01, VerdictNoChange},
		{"delta equal to noise is not significant", 0.5, 0.53125, 0.03125, VerdictNoChange},
		{"identical runs", 0.65, 0.65, 0.01, VerdictNoChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Compare(
				runWithOverall("run_a", "baseline", tt.baseline),
				runWithOverall("run_b", "candidate", tt.candidate),
				tt.noise,
			)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, report.Verdict)
			assert.InDelta(t, tt.candidate-tt.baseline, report.OverallDelta, 0.0001)
		})
	}
}

func TestCompareDeltas(t *testing.T) {
	baseline := runWithOverall("run_a", "baseline", 0.50)
	candidate := runWithOverall("run_b", "candidate", 0.60)

	report, err := Compare(baseline, candidate, 0.01)
	require.NoError(t, err)

	require.NotEmpty(t, report.Deltas)
	overall := report.Deltas[0]
	assert.Equal(t, "overall", overall.Metric)
	assert.InDelta(t, 0.10, overall.Absolute, 0.001)
	assert.InDelta(t, 0.20, overall.Relative, 0.001)

	// Every metric appears exactly once.
	seen := map[string]bool{}
	for _, d := range report.Deltas {
		assert.False(t, seen[d.Metric], "duplicate metric %s", d.Metric)
		seen[d.Metric] = true
	}
	assert.Len(t, report.Deltas, 7)
}

func TestCompareZeroBaselineRelative(t *testing.T) {
	report, err := Compare(
		runWithOverall("run_a", "baseline", 0.0),
		runWithOverall("run_b", "candidate", 0.5),
		0.01,
	)
	require.NoError(t, err)
	assert.Zero(t, report.Deltas[0].Relative)
}

func TestCompareRejectsBadInput(t *testing.T) {
	run := runWithOverall("run_a", "a", 0.5)

	_, err := Compare(nil, run, 0.01)
	assert.Error(t, err)

	_, err = Compare(run, nil, 0.01)
	assert.Error(t, err)

	_, err = Compare(run, run, -0.5)
	assert.Error(t, err)
}
