// Package bootstrap compiles a skill by harvesting few-shot demonstrations
// from its own successful outputs. The module is run over the trainset; raw
// responses whose quality score clears the threshold become demonstrations,
// topped up with ground-truth examples when slots remain.
package bootstrap

import (
	"context"
	"fmt"
	"sort"
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

// Config bounds demonstration selection
type Config struct {
	// Threshold is the minimum overall score for a response to become a
	// demonstration
	Threshold float64
	// MaxBootstrapped caps model-generated demonstrations
	MaxBootstrapped int
	// MaxLabeled caps total demonstrations after ground-truth backfill
	MaxLabeled int
	// Concurrency is the maximum number of in-flight model invocations
	Concurrency int
	// Timeout bounds the whole pass; expired invocations are skipped as
	// failures
	Timeout time.Duration
}

// Result describes one bootstrapping pass
type Result struct {
	Demos        []skill.Demonstration
	Attempted    int
	Failed       int
	Bootstrapped int
	Labeled      int
}

// Bootstrapper harvests demonstrations from a module's trainset outputs
type Bootstrapper struct {
	cfg       Config
	extractor *extractor.Extractor
	matcher   *match.Matcher
	scorer    *scoring.Scorer
	logger    *loggy.Logger
}

// New creates a bootstrapper
func New(cfg Config, ext *extractor.Extractor, matcher *match.Matcher, scorer *scoring.Scorer, logger *loggy.Logger) (*Bootstrapper, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("bootstrap threshold %v outside [0,1]", cfg.Threshold)
	}
	if cfg.MaxBootstrapped < 0 || cfg.MaxLabeled < 0 {
		return nil, fmt.Errorf("demonstration caps must be non-negative")
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("bootstrap timeout must be positive, got %s", cfg.Timeout)
	}
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Bootstrapper{
		cfg:       cfg,
		extractor: ext,
		matcher:   matcher,
		scorer:    scorer,
		logger:    logger,
	}, nil
}

type candidate struct {
	order int
	demo  skill.Demonstration
}

// Bootstrap runs the module over the trainset and selects demonstrations.
// Invocations fan out under the concurrency limit and the pass-level
// timeout; scoring and selection then walk the collected responses in
// trainset order, so the pass is deterministic for a fixed model. A failed
// or timed-out invocation skips its example and never aborts the run.
func (b *Bootstrapper) Bootstrap(ctx context.Context, module *skill.Module, trainset []corpus.TrainingExample) (*Result, error) {
	result := &Result{Attempted: len(trainset)}
	candidates := make([]candidate, 0, len(trainset))
	used := make(map[string]bool, len(trainset))

	passCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	responses := make([]string, len(trainset))
	invokeErrs := make([]error, len(trainset))

	g, gctx := errgroup.WithContext(passCtx)
	g.SetLimit(b.cfg.Concurrency)
	for i, ex := range trainset {
		g.Go(func() error {
			responses[i], invokeErrs[i] = module.Invoke(gctx, ex)
			return nil
		})
	}
	// Workers never return errors; failures are skipped below.
	_ = g.Wait()

	for i, ex := range trainset {
		if err := invokeErrs[i]; err != nil {
			result.Failed++
			b.logger.Warn("skipping example after failed invocation", "example", ex.ID, "error", err)
			continue
		}
		response := responses[i]

		extraction := b.extractor.Extract(response)
		matched := b.matcher.Match(extraction.Issues, ex.Expected)
		score := b.scorer.Score(matched)

		b.logger.Debug("bootstrap candidate scored",
			"example", ex.ID,
			"overall", score.Overall,
			"status", extraction.Status,
		)

		if score.Overall < b.cfg.Threshold {
			continue
		}

		candidates = append(candidates, candidate{
			order: i,
			demo: skill.Demonstration{
				ID:        ulid.DemoID(),
				ExampleID: ex.ID,
				Code:      ex.Code,
				Language:  ex.Language,
				Response:  response,
				Score:     score.Overall,
			},
		})
		used[ex.ID] = true
	}

	// Best first; ties keep trainset order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].demo.Score != candidates[j].demo.Score {
			return candidates[i].demo.Score > candidates[j].demo.Score
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > b.cfg.MaxBootstrapped {
		for _, c := range candidates[b.cfg.MaxBootstrapped:] {
			delete(used, c.demo.ExampleID)
		}
		candidates = candidates[:b.cfg.MaxBootstrapped]
	}

	for _, c := range candidates {
		result.Demos = append(result.Demos, c.demo)
	}
	result.Bootstrapped = len(result.Demos)

	// Backfill with ground truth until the total cap is reached.
	for _, ex := range trainset {
		if len(result.Demos) >= b.cfg.MaxLabeled {
			break
		}
		if used[ex.ID] {
			continue
		}

		response, err := skill.LabeledResponse(ex.Expected)
		if err != nil {
			return nil, fmt.Errorf("rendering labeled demonstration for %s: %w", ex.ID, err)
		}
		result.Demos = append(result.Demos, skill.Demonstration{
			ID:        ulid.DemoID(),
			ExampleID: ex.ID,
			Code:      ex.Code,
			Language:  ex.Language,
			Response:  response,
			Labeled:   true,
		})
		used[ex.ID] = true
	}
	result.Labeled = len(result.Demos) - result.Bootstrapped

	b.logger.Info("bootstrapping complete",
		"attempted", result.Attempted,
		"failed", result.Failed,
		"bootstrapped", result.Bootstrapped,
		"labeled", result.Labeled,
	)
	return result, nil
}
