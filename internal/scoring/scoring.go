// Package scoring computes composite quality scores from match results.
// Every metric is defined for every input, including empty predicted or
// expected sets. Edge cases are conventions, not errors.
package scoring

import (
	"fmt"

	"github.com/skillforge/skillforge/internal/issue"
	"github.com/skillforge/skillforge/internal/match"
)

// Weights are the configuration surface for the overall score. They are
// empirically chosen defaults, not derived constants; deployments tune
// them.
type Weights struct {
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	CriticalRecall   float64 `json:"critical_recall"`
	SeverityAccuracy float64 `json:"severity_accuracy"`
	FixQuality       float64 `json:"fix_quality"`
}

// DefaultWeights returns the default overall-score weights. Critical recall
// carries the most weight: missing a critical issue costs more than any
// other mistake.
func DefaultWeights() Weights {
	return Weights{
		Precision:        0.15,
		Recall:           0.25,
		CriticalRecall:   0.30,
		SeverityAccuracy: 0.15,
		FixQuality:       0.15,
	}
}

// Validate rejects weight sets the scorer cannot normalize.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"precision":         w.Precision,
		"recall":            w.Recall,
		"critical_recall":   w.CriticalRecall,
		"severity_accuracy": w.SeverityAccuracy,
		"fix_quality":       w.FixQuality,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	if w.Precision+w.Recall+w.CriticalRecall+w.SeverityAccuracy+w.FixQuality <= 0 {
		return fmt.Errorf("overall-score weights sum to zero")
	}
	return nil
}

// QualityScore is the composite score for one (example, model output)
// pair. All components are in [0,1]. RecallDefined is false for clean-code
// examples where the model predicted issues anyway: recall cannot penalize
// an example with nothing to recall, so it is excluded from aggregation
// instead.
type QualityScore struct {
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	RecallDefined    bool    `json:"recall_defined"`
	F1               float64 `json:"f1"`
	CriticalRecall   float64 `json:"critical_recall"`
	SeverityAccuracy float64 `json:"severity_accuracy"`
	FixQuality       float64 `json:"fix_quality"`
	Overall          float64 `json:"overall"`

	// Failed marks a zero-valued score recorded for an example whose
	// invocation or extraction failed; such scores are counted in failure
	// rate, not in metric means.
	Failed     bool   `json:"failed,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
}

// FailedScore returns the zero-valued score recorded for a failed example.
func FailedScore(reason string) QualityScore {
	return QualityScore{Failed: true, FailReason: reason}
}

// Scorer computes QualityScores using a fixed weight set.
type Scorer struct {
	weights Weights
}

// New creates a Scorer. Invalid weights are a configuration error surfaced
// at construction, never silently clamped.
func New(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Score computes the composite quality score for one match result.
func (s *Scorer) Score(res *match.Result) QualityScore {
	matched := float64(res.Matched())
	predicted := res.PredictedCount()
	expected := res.ExpectedCount()

	score := QualityScore{RecallDefined: true}

	// Precision: reporting no issues is vacuously precise.
	if predicted == 0 {
		score.Precision = 1.0
	} else {
		score.Precision = matched / float64(predicted)
	}

	// Recall: a clean-code example cannot be penalized on recall. With
	// zero predictions it is perfect; with false positives it is undefined
	// and excluded from aggregation (precision already took the hit).
	switch {
	case expected > 0:
		score.Recall = matched / float64(expected)
	case predicted == 0:
		score.Recall = 1.0
	default:
		score.Recall = 0
		score.RecallDefined = false
	}

	if score.RecallDefined && score.Precision+score.Recall > 0 {
		score.F1 = 2 * score.Precision * score.Recall / (score.Precision + score.Recall)
	}

	score.CriticalRecall = criticalRecall(res)
	score.SeverityAccuracy = severityAccuracy(res)
	score.FixQuality = fixQuality(res)
	score.Overall = s.overall(score)

	return score
}

func criticalRecall(res *match.Result) float64 {
	totalCritical := 0
	matchedCritical := 0
	for _, p := range res.Pairs {
		if p.Expected.Severity == issue.SeverityCritical {
			totalCritical++
			matchedCritical++
		}
	}
	for _, e := range res.FalseNegatives {
		if e.Severity == issue.SeverityCritical {
			totalCritical++
		}
	}
	if totalCritical == 0 {
		return 1.0
	}
	return float64(matchedCritical) / float64(totalCritical)
}

func severityAccuracy(res *match.Result) float64 {
	if len(res.Pairs) == 0 {
		return 0
	}
	exact := 0
	for _, p := range res.Pairs {
		if p.SeverityMatch {
			exact++
		}
	}
	return float64(exact) / float64(len(res.Pairs))
}

// fixQuality is the fraction of matched predictions carrying both a fix
// snippet and an impact statement.
func fixQuality(res *match.Result) float64 {
	if len(res.Pairs) == 0 {
		return 0
	}
	good := 0
	for _, p := range res.Pairs {
		if p.Predicted.HasFix() && p.Predicted.HasImpact {
			good++
		}
	}
	return float64(good) / float64(len(res.Pairs))
}

// overall is the weighted mean of the components. An undefined recall drops
// out of both numerator and denominator.
func (s *Scorer) overall(q QualityScore) float64 {
	w := s.weights
	sum := w.Precision*q.Precision +
		w.CriticalRecall*q.CriticalRecall +
		w.SeverityAccuracy*q.SeverityAccuracy +
		w.FixQuality*q.FixQuality
	total := w.Precision + w.CriticalRecall + w.SeverityAccuracy + w.FixQuality

	if q.RecallDefined {
		sum += w.Recall * q.Recall
		total += w.Recall
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
