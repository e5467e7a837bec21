package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/bootstrap"
	"github.com/skillforge/skillforge/internal/skill"
	"github.com/skillforge/skillforge/internal/utils"
)

// OptimizeCommand returns the CLI command for bootstrapping demonstrations
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Bootstrap few-shot demonstrations for a skill from a training corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "corpus",
				Aliases:  []string{"c"},
				Usage:    "Path to the training corpus manifest",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "skill",
				Aliases: []string{"s"},
				Usage:   "Path to a skill markdown file (default: built-in review skill)",
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
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "Write the optimized skill markdown to this path",
			},
		},
		Action: optimizeAction,
	}
}

func optimizeAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	trainset, err := loadCorpus(c)
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

	module := buildModule(a, c, s, client, nil, provider)

	utils.PrintHeading(fmt.Sprintf("Bootstrapping demonstrations for skill %q from %d examples", s.Name, len(trainset)))

	result, err := a.Bootstrapper.Bootstrap(c.Context, module, trainset)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Bootstrapping failed: %s", err))
		return fmt.Errorf("bootstrapping failed: %w", err)
	}

	rows := make([][]string, 0, len(result.Demos))
	for i, demo := range result.Demos {
		kind := "bootstrapped"
		score := formatFloat(demo.Score)
		if demo.Labeled {
			kind = "labeled"
			score = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1), demo.ExampleID, kind, score,
		})
	}
	utils.PrintTable([]string{"#", "Example", "Kind", "Score"}, rows,
		utils.TableOptions{Title: "Selected demonstrations"})

	if result.Failed > 0 {
		utils.PrintWarning(fmt.Sprintf("%d of %d invocations failed and were skipped", result.Failed, result.Attempted))
	}

	set := &bootstrap.DemoSet{
		SkillName: s.Name,
		Provider:  provider,
		Model:     resolveModel(a, c, provider),
		Threshold: a.Config.Eval.BootstrapThreshold,
		Demos:     result.Demos,
	}
	if err := a.Demos.SaveDemoSet(c.Context, set); err != nil {
		return fmt.Errorf("saving demonstration set: %w", err)
	}
	utils.PrintSuccess(fmt.Sprintf("Demonstration set saved as %s (%d bootstrapped, %d labeled)",
		set.ID, result.Bootstrapped, result.Labeled))

	if out := c.String("export"); out != "" {
		if err := skill.WriteMarkdown(out, s, result.Demos); err != nil {
			return err
		}
		utils.PrintSuccess(fmt.Sprintf("Optimized skill written to %s", out))
	}

	return nil
}
