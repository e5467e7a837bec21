package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/eval"
	"github.com/skillforge/skillforge/internal/utils"
)

// EvaluateCommand returns the CLI command for evaluating a skill
func EvaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Evaluate a skill against a validation corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "corpus",
				Aliases:  []string{"c"},
				Usage:    "Path to the corpus manifest",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "skill",
				Aliases: []string{"s"},
				Usage:   "Path to a skill markdown file (default: built-in review skill)",
			},
			&cli.StringFlag{
				Name:    "demos",
				Aliases: []string{"d"},
				Usage:   "Demonstration set ID, or 'latest' for the newest set of this skill",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Run name (default: generated)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "LLM provider to use (ollama or azure)",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model name override",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not persist the run",
			},
		},
		Action: evaluateAction,
	}
}

func evaluateAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	valset, err := loadCorpus(c)
	if err != nil {
		return err
	}

	s, err := loadSkill(c)
	if err != nil {
		return err
	}

	client, provider, err := resolveClient(a, c)
	if err != nil {
		return err
	}

	demos, err := resolveDemos(a, c, s.Name)
	if err != nil {
		return err
	}

	name := c.String("name")
	if name == "" {
		name = utils.GenerateRunName()
	}

	module := buildModule(a, c, s, client, demos, provider)
	meta := eval.RunMeta{
		Name:      name,
		SkillName: s.Name,
		Provider:  provider,
		Model:     resolveModel(a, c, provider),
		DemoCount: len(demos),
	}

	utils.PrintHeading(fmt.Sprintf("Evaluating skill %q (%d demos) on %d examples", s.Name, len(demos), len(valset)))

	run, err := a.Runner.Evaluate(c.Context, module, valset, meta)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Evaluation failed: %s", err))
		return fmt.Errorf("evaluation failed: %w", err)
	}

	printRunSummary(run)

	if failed := run.FailedCount(); failed > 0 {
		utils.PrintWarning(fmt.Sprintf("%d of %d examples failed", failed, len(run.Examples)))
	}

	if !c.Bool("no-save") {
		if err := a.Runs.SaveRun(c.Context, run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		utils.PrintSuccess(fmt.Sprintf("Run saved as %s", run.ID))
	}

	return nil
}
