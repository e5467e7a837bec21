package commands

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/utils"
)

// RunsCommand returns the CLI command for listing and inspecting runs
func RunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List and inspect evaluation runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of runs to list",
				Value:   20,
			},
		},
		Action: listRunsAction,
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show one run with per-example results",
				ArgsUsage: "<run-id>",
				Action:    showRunAction,
			},
		},
	}
}

func listRunsAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	runs, err := a.Runs.ListRuns(c.Context, c.Int("limit"), 0)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		utils.PrintInfo("No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Name,
			run.SkillName,
			fmt.Sprintf("%s/%s", run.Provider, run.Model),
			fmt.Sprintf("%d", run.DemoCount),
			formatStat(run.Metrics.Overall),
			fmt.Sprintf("%.1f%%", run.Metrics.FailureRate*100),
			run.StartedAt.Format(time.RFC3339),
		})
	}
	utils.PrintTable(
		[]string{"ID", "Name", "Skill", "Provider", "Demos", "Overall", "Failures", "Started"},
		rows, utils.TableOptions{Title: "Evaluation runs"})
	return nil
}

func showRunAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if c.NArg() != 1 {
		return fmt.Errorf("expected a run ID")
	}

	run, err := a.Runs.GetRun(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	printRunSummary(run)

	rows := make([][]string, 0, len(run.Examples))
	for _, ex := range run.Examples {
		status := string(ex.ParseStatus)
		if ex.Score.Failed {
			status = "failed: " + ex.Score.FailReason
		}
		rows = append(rows, []string{
			ex.ExampleID,
			formatFloat(ex.Score.Overall),
			fmt.Sprintf("%d/%d/%d", ex.Matched, ex.Predicted, ex.Expected),
			status,
			ex.Duration.Round(time.Millisecond).String(),
		})
	}
	utils.PrintTable(
		[]string{"Example", "Overall", "Matched/Pred/Exp", "Status", "Duration"},
		rows, utils.TableOptions{Title: "Per-example results"})
	return nil
}
