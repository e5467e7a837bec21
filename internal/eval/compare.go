package eval

import (
	"fmt"
	"math"
)

// Verdict classifies a baseline-vs-candidate comparison
type Verdict string

const (
	// VerdictImproved means the candidate's overall mean beat the baseline
	// by more than the noise threshold
	VerdictImproved Verdict = "improved"

	// VerdictRegressed means the candidate fell below the baseline by more
	// than the noise threshold
	VerdictRegressed Verdict = "regressed"

	// VerdictNoChange means the overall delta is within noise
	VerdictNoChange Verdict = "no significant change"
)

// MetricDelta is the movement of one metric between two runs
type MetricDelta struct {
	Metric    string
	Baseline  float64
	Candidate float64
	// Absolute is candidate minus baseline
	Absolute float64
	// Relative is the absolute delta as a fraction of the baseline; zero
	// when the baseline is zero
	Relative float64
}

// ComparisonReport diffs two evaluation runs metric by metric
type ComparisonReport struct {
	BaselineID    string
	BaselineName  string
	CandidateID   string
	CandidateName string

	Deltas []MetricDelta

	// OverallDelta is the candidate-minus-baseline movement of the overall
	// mean; the verdict is gated on it
	OverallDelta   float64
	NoiseThreshold float64
	Verdict        Verdict
}

// Compare diffs a candidate run against a baseline. The verdict reflects
// only the overall mean: per-metric movements are reported but a candidate
// that trades metrics without moving the overall past the noise threshold
// is "no significant change".
func Compare(baseline, candidate *EvaluationRun, noiseThreshold float64) (*ComparisonReport, error) {
	if baseline == nil || candidate == nil {
		return nil, fmt.Errorf("comparison requires two runs")
	}
	if noiseThreshold < 0 {
		return nil, fmt.Errorf("noise threshold is negative: %v", noiseThreshold)
	}

	report := &ComparisonReport{
		BaselineID:     baseline.ID,
		BaselineName:   baseline.Name,
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		NoiseThreshold: noiseThreshold,
	}

	pairs := []struct {
		name string
		b, c MetricStats
	}{
		{"overall", baseline.Metrics.Overall, candidate.Metrics.Overall},
		{"precision", baseline.Metrics.Precision, candidate.Metrics.Precision},
		{"recall", baseline.Metrics.Recall, candidate.Metrics.Recall},
		{"f1", baseline.Metrics.F1, candidate.Metrics.F1},
		{"critical_recall", baseline.Metrics.CriticalRecall, candidate.Metrics.CriticalRecall},
		{"severity_accuracy", baseline.Metrics.SeverityAccuracy, candidate.Metrics.SeverityAccuracy},
		{"fix_quality", baseline.Metrics.FixQuality, candidate.Metrics.FixQuality},
	}

	for _, p := range pairs {
		delta := MetricDelta{
			Metric:    p.name,
			Baseline:  p.b.Mean,
			Candidate: p.c.Mean,
			Absolute:  p.c.Mean - p.b.Mean,
		}
		if p.b.Mean != 0 {
			delta.Relative = delta.Absolute / p.b.Mean
		}
		report.Deltas = append(report.Deltas, delta)
	}

	report.OverallDelta = candidate.Metrics.Overall.Mean - baseline.Metrics.Overall.Mean
	switch {
	case math.Abs(report.OverallDelta) <= noiseThreshold:
		report.Verdict = VerdictNoChange
	case report.OverallDelta > 0:
		report.Verdict = VerdictImproved
	default:
		report.Verdict = VerdictRegressed
	}

	return report, nil
}
