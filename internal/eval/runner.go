package eval

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/extractor"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/match"
	"github.com/skillforge/skillforge/internal/scoring"
	"github.com/skillforge/skillforge/internal/skill"
	"github.com/skillforge/skillforge/internal/ulid"
)

// RunnerConfig bounds a run's concurrency and duration
type RunnerConfig struct {
	// Concurrency is the maximum number of in-flight model invocations
	Concurrency int
	// Timeout bounds the whole run; expired invocations record as failures
	Timeout time.Duration
}

// RunMeta labels a run for persistence and comparison
type RunMeta struct {
	Name      string
	SkillName string
	Provider  string
	Model     string
	DemoCount int
}

// Runner evaluates a module over a validation set
type Runner struct {
	cfg       RunnerConfig
	extractor *extractor.Extractor
	matcher   *match.Matcher
	scorer    *scoring.Scorer
	logger    *loggy.Logger
}

// NewRunner creates a runner
func NewRunner(cfg RunnerConfig, ext *extractor.Extractor, matcher *match.Matcher, scorer *scoring.Scorer, logger *loggy.Logger) (*Runner, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("run timeout must be positive, got %s", cfg.Timeout)
	}
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Runner{cfg: cfg, extractor: ext, matcher: matcher, scorer: scorer, logger: logger}, nil
}

// Evaluate maps the module over the validation set concurrently and
// aggregates the scores. Every example yields a record: a failed or
// timed-out invocation records a zero score with the failure reason rather
// than aborting the run. Results keep validation-set order regardless of
// completion order.
func (r *Runner) Evaluate(ctx context.Context, module *skill.Module, valset []corpus.TrainingExample, meta RunMeta) (*EvaluationRun, error) {
	if len(valset) == 0 {
		return nil, fmt.Errorf("validation set is empty")
	}

	run := &EvaluationRun{
		ID:        ulid.RunID(),
		Name:      meta.Name,
		SkillName: meta.SkillName,
		Provider:  meta.Provider,
		Model:     meta.Model,
		DemoCount: meta.DemoCount,
		StartedAt: time.Now(),
		Examples:  make([]ExampleResult, len(valset)),
	}

	r.logger.Info("starting evaluation run",
		"run", run.ID,
		"name", run.Name,
		"examples", len(valset),
		"concurrency", r.cfg.Concurrency,
		"timeout", r.cfg.Timeout,
	)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.cfg.Concurrency)

	for i, ex := range valset {
		g.Go(func() error {
			run.Examples[i] = r.evaluateExample(gctx, module, ex, run.ID)
			return nil
		})
	}

	// Workers never return errors; failures are data in the records.
	_ = g.Wait()

	run.Metrics = Aggregate(run.Examples)
	run.CompletedAt = time.Now()

	r.logger.Info("evaluation run complete",
		"run", run.ID,
		"overall_mean", run.Metrics.Overall.Mean,
		"failure_rate", run.Metrics.FailureRate,
		"duration", run.CompletedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (r *Runner) evaluateExample(ctx context.Context, module *skill.Module, ex corpus.TrainingExample, runID string) ExampleResult {
	start := time.Now()
	result := ExampleResult{
		ID:        ulid.ExampleID(),
		RunID:     runID,
		ExampleID: ex.ID,
		Expected:  len(ex.Expected),
		CreatedAt: start,
	}

	response, err := module.Invoke(ctx, ex)
	result.Duration = time.Since(start)
	if err != nil {
		r.logger.Warn("example invocation failed", "run", runID, "example", ex.ID, "error", err)
		result.Score = scoring.FailedScore(err.Error())
		return result
	}

	extraction := r.extractor.Extract(response)
	matched := r.matcher.Match(extraction.Issues, ex.Expected)

	result.Response = response
	result.ParseStatus = extraction.Status
	result.Predicted = matched.PredictedCount()
	result.Matched = matched.Matched()
	result.Score = r.scorer.Score(matched)
	return result
}
