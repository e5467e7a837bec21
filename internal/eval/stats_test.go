package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skillforge/skillforge/internal/scoring"
)

func TestMeanAndStdDev(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.Zero(t, stdDev(nil))
	assert.Zero(t, stdDev([]float64{0.5}))

	assert.InDelta(t, 0.5, mean([]float64{0.25, 0.75}), 0.001)
	// Sample standard deviation of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138.
	assert.InDelta(t, 2.138, stdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
}

func TestAggregate(t *testing.T) {
	results := []ExampleResult{
		{Score: scoring.QualityScore{
			Overall: 0.8, Precision: 1.0, Recall: 0.8, RecallDefined: true,
			F1: 0.89, CriticalRecall: 1.0, SeverityAccuracy: 0.5, FixQuality: 0.5,
		}},
		{Score: scoring.QualityScore{
			Overall: 0.4, Precision: 0.5, Recall: 0.4, RecallDefined: true,
			F1: 0.44, CriticalRecall: 0.5, SeverityAccuracy: 1.0, FixQuality: 0.0,
		}},
		// Clean-code example with false positives: recall undefined.
		{Score: scoring.QualityScore{
			Overall: 0.3, Precision: 0.0, RecallDefined: false, CriticalRecall: 1.0,
		}},
		// Failed example counts toward the failure rate only.
		{Score: scoring.FailedScore("timeout")},
	}

	m := Aggregate(results)

	assert.Equal(t, 3, m.Overall.N)
	assert.InDelta(t, (0.8+0.4+0.3)/3, m.Overall.Mean, 0.001)

	// Recall and F1 only average over the examples where recall is defined.
	assert.Equal(t, 2, m.Recall.N)
	assert.InDelta(t, 0.6, m.Recall.Mean, 0.001)
	assert.Equal(t, 2, m.F1.N)

	assert.InDelta(t, 0.25, m.FailureRate, 0.001)
}

func TestAggregateExcludesFailedFromMeans(t *testing.T) {
	results := []ExampleResult{
		{Score: scoring.QualityScore{
			Overall: 0.8, Precision: 1.0, Recall: 0.8, RecallDefined: true,
			CriticalRecall: 1.0, SeverityAccuracy: 1.0, FixQuality: 0.5,
		}},
		{Score: scoring.FailedScore("backend unavailable")},
	}

	m := Aggregate(results)

	// The failed example's zeros must not drag any mean down.
	assert.InDelta(t, 0.8, m.Overall.Mean, 0.001)
	assert.InDelta(t, 1.0, m.Precision.Mean, 0.001)
	assert.InDelta(t, 1.0, m.CriticalRecall.Mean, 0.001)
	assert.InDelta(t, 1.0, m.SeverityAccuracy.Mean, 0.001)
	assert.InDelta(t, 0.5, m.FixQuality.Mean, 0.001)
	assert.Equal(t, 1, m.Overall.N)
	assert.Equal(t, 1, m.Precision.N)

	assert.InDelta(t, 0.5, m.FailureRate, 0.001)
}

func TestAggregateAllFailed(t *testing.T) {
	m := Aggregate([]ExampleResult{
		{Score: scoring.FailedScore("timeout")},
		{Score: scoring.FailedScore("timeout")},
	})
	assert.Zero(t, m.Overall.N)
	assert.Zero(t, m.Overall.Mean)
	assert.InDelta(t, 1.0, m.FailureRate, 0.001)
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(nil)
	assert.Zero(t, m.Overall.Mean)
	assert.Zero(t, m.FailureRate)
}
