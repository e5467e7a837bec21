// Package eval runs a skill module over a validation set, aggregates
// per-example quality scores into run-level statistics, and compares runs.
package eval

import (
	"time"

	"github.com/skillforge/skillforge/internal/extractor"
	"github.com/skillforge/skillforge/internal/scoring"
)

// ExampleResult is the record for one example in a run. Failed invocations
// still produce a record, with a zeroed score and the failure reason.
type ExampleResult struct {
	ID        string
	RunID     string
	ExampleID string

	Score       scoring.QualityScore
	ParseStatus extractor.ParseStatus
	Response    string

	Predicted int
	Expected  int
	Matched   int

	Duration  time.Duration
	CreatedAt time.Time
}

// MetricStats is the aggregate of one metric across a run's examples
type MetricStats struct {
	Mean   float64
	StdDev float64
	// N is the number of examples the metric was defined for
	N int
}

// RunMetrics holds the aggregated statistics of a run. Means cover the
// successfully evaluated examples only; failed examples surface through
// FailureRate. Recall and F1 are further restricted to examples where
// recall is defined.
type RunMetrics struct {
	Overall          MetricStats
	Precision        MetricStats
	Recall           MetricStats
	F1               MetricStats
	CriticalRecall   MetricStats
	SeverityAccuracy MetricStats
	FixQuality       MetricStats

	// FailureRate is the fraction of examples whose invocation failed
	FailureRate float64
}

// EvaluationRun is one complete pass of a module over a validation set
type EvaluationRun struct {
	ID        string
	Name      string
	SkillName string
	Provider  string
	Model     string
	DemoCount int

	Examples []ExampleResult
	Metrics  RunMetrics

	StartedAt   time.Time
	CompletedAt time.Time
}

// FailedCount returns the number of failed example records
func (r *EvaluationRun) FailedCount() int {
	n := 0
	for _, ex := range r.Examples {
		if ex.Score.Failed {
			n++
		}
	}
	return n
}
