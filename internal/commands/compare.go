package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/eval"
	"github.com/skillforge/skillforge/internal/utils"
)

// CompareCommand returns the CLI command for comparing two runs
func CompareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare a candidate run against a baseline run",
		ArgsUsage: "<baseline-run-id> <candidate-run-id>",
		Action:    compareAction,
	}
}

func compareAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if c.NArg() != 2 {
		return fmt.Errorf("expected exactly two run IDs, got %d", c.NArg())
	}

	baseline, err := a.Runs.GetRun(c.Context, c.Args().Get(0))
	if err != nil {
		return err
	}
	candidate, err := a.Runs.GetRun(c.Context, c.Args().Get(1))
	if err != nil {
		return err
	}

	report, err := eval.Compare(baseline, candidate, a.Config.Eval.NoiseThreshold)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(report.Deltas))
	for _, d := range report.Deltas {
		rows = append(rows, []string{
			d.Metric,
			formatFloat(d.Baseline),
			formatFloat(d.Candidate),
			fmt.Sprintf("%+.3f", d.Absolute),
			fmt.Sprintf("%+.1f%%", d.Relative*100),
		})
	}
	utils.PrintTable([]string{"Metric", "Baseline", "Candidate", "Delta", "Relative"}, rows,
		utils.TableOptions{Title: fmt.Sprintf("%s vs %s", baseline.Name, candidate.Name)})

	verdict := string(report.Verdict)
	switch report.Verdict {
	case eval.VerdictImproved:
		verdict = color.GreenString(verdict)
	case eval.VerdictRegressed:
		verdict = color.RedString(verdict)
	default:
		verdict = color.YellowString(verdict)
	}
	fmt.Printf("Verdict: %s (overall %+.3f, noise threshold %.3f)\n",
		verdict, report.OverallDelta, report.NoiseThreshold)

	return nil
}
