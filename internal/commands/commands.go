// Package commands implements the CLI commands.
package commands

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/eval"
	"github.com/skillforge/skillforge/internal/llm"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/skill"
	"github.com/skillforge/skillforge/internal/utils"
)

// loadSkill loads the skill file given by the --skill flag, or the built-in
// default when the flag is absent.
func loadSkill(c *cli.Context) (*skill.Skill, error) {
	path := c.String("skill")
	if path == "" {
		return skill.Default(), nil
	}
	return skill.Load(path)
}

// resolveClient picks the provider from the --provider flag or falls back to
// the configured default.
func resolveClient(a *app.App, c *cli.Context) (llm.Client, string, error) {
	if provider := c.String("provider"); provider != "" {
		client, err := a.Factory.GetClient(llm.ClientType(provider))
		if err != nil {
			return nil, "", err
		}
		return client, provider, nil
	}

	client, clientType, err := a.Factory.GetDefaultClient()
	if err != nil {
		return nil, "", err
	}
	return client, string(clientType), nil
}

// resolveModel returns the model name for the chosen provider, honoring the
// --model override.
func resolveModel(a *app.App, c *cli.Context, provider string) string {
	if model := c.String("model"); model != "" {
		return model
	}
	switch provider {
	case "azure":
		return a.Config.Azure.Deployment
	default:
		return a.Config.Ollama.Model
	}
}

// generationOptions returns the generation parameters for the chosen provider
func generationOptions(a *app.App, provider string) (maxTokens int, temperature float64) {
	switch provider {
	case "azure":
		return a.Config.Azure.MaxTokens, a.Config.Azure.Temperature
	default:
		return a.Config.Ollama.MaxTokens, a.Config.Ollama.Temperature
	}
}

// resolveDemos loads the demonstration set named by the --demos flag: a set
// ID, "latest" for the newest set of the skill, or empty for none.
func resolveDemos(a *app.App, c *cli.Context, skillName string) ([]skill.Demonstration, error) {
	ref := c.String("demos")
	switch ref {
	case "":
		return nil, nil
	case "latest":
		set, err := a.Demos.GetLatestDemoSet(c.Context, skillName)
		if err != nil {
			return nil, err
		}
		return set.Demos, nil
	default:
		set, err := a.Demos.GetDemoSet(c.Context, ref)
		if err != nil {
			return nil, err
		}
		return set.Demos, nil
	}
}

func buildModule(a *app.App, c *cli.Context, s *skill.Skill, client llm.Client, demos []skill.Demonstration, provider string) *skill.Module {
	maxTokens, temperature := generationOptions(a, provider)
	model := resolveModel(a, c, provider)

	return skill.NewModule(s, client, loggy.GetGlobalLogger(),
		skill.WithGeneration(model, maxTokens, temperature),
		skill.WithDemonstrations(demos),
	)
}

func loadCorpus(c *cli.Context) ([]corpus.TrainingExample, error) {
	path := c.String("corpus")
	if path == "" {
		return nil, fmt.Errorf("--corpus is required")
	}
	examples, err := corpus.Load(path)
	if err != nil {
		return nil, err
	}
	utils.PrintInfo(fmt.Sprintf("Loaded %d examples from %s", len(examples), path))
	return examples, nil
}

// printRunSummary renders a run's aggregate metrics as a table
func printRunSummary(run *eval.EvaluationRun) {
	rows := [][]string{
		{"overall", formatStat(run.Metrics.Overall)},
		{"precision", formatStat(run.Metrics.Precision)},
		{"recall", formatStat(run.Metrics.Recall)},
		{"f1", formatStat(run.Metrics.F1)},
		{"critical_recall", formatStat(run.Metrics.CriticalRecall)},
		{"severity_accuracy", formatStat(run.Metrics.SeverityAccuracy)},
		{"fix_quality", formatStat(run.Metrics.FixQuality)},
		{"failure_rate", fmt.Sprintf("%.1f%%", run.Metrics.FailureRate*100)},
	}
	utils.PrintTable([]string{"Metric", "Mean (±StdDev)"}, rows,
		utils.TableOptions{Title: fmt.Sprintf("Run %s (%s)", run.Name, run.ID)})
}

func formatStat(s eval.MetricStats) string {
	return fmt.Sprintf("%.3f (±%.3f)", s.Mean, s.StdDev)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
