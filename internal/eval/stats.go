package eval

import "math"

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation. Fewer than two values yields 0.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		d := v - m
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

func stats(values []float64) MetricStats {
	return MetricStats{Mean: mean(values), StdDev: stdDev(values), N: len(values)}
}

// Aggregate reduces per-example results into run statistics. It runs only
// after every example has resolved; partial aggregation is never exposed.
// Failed examples count toward the failure rate only; their zeroed scores
// never enter a metric mean.
func Aggregate(results []ExampleResult) RunMetrics {
	var (
		overall, precision, recall, f1 []float64
		critical, severity, fix        []float64
		failed                         int
	)

	for _, res := range results {
		s := res.Score
		if s.Failed {
			failed++
			continue
		}
		overall = append(overall, s.Overall)
		precision = append(precision, s.Precision)
		critical = append(critical, s.CriticalRecall)
		severity = append(severity, s.SeverityAccuracy)
		fix = append(fix, s.FixQuality)
		if s.RecallDefined {
			recall = append(recall, s.Recall)
			f1 = append(f1, s.F1)
		}
	}

	m := RunMetrics{
		Overall:          stats(overall),
		Precision:        stats(precision),
		Recall:           stats(recall),
		F1:               stats(f1),
		CriticalRecall:   stats(critical),
		SeverityAccuracy: stats(severity),
		FixQuality:       stats(fix),
	}
	if len(results) > 0 {
		m.FailureRate = float64(failed) / float64(len(results))
	}
	return m
}
