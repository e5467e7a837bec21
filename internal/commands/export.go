package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/skill"
	"github.com/skillforge/skillforge/internal/utils"
)

// ExportCommand returns the CLI command for exporting an optimized skill
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a skill with its demonstrations as standalone markdown",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "skill",
				Aliases: []string{"s"},
				Usage:   "Path to a skill markdown file (default: built-in review skill)",
			},
			&cli.StringFlag{
				Name:    "demos",
				Aliases: []string{"d"},
				Usage:   "Demonstration set ID, or 'latest' for the newest set of this skill",
				Value:   "latest",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output path (default: print a rendered preview)",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	a, err := app.FromContext(c)
	if err != nil {
		return err
	}

	s, err := loadSkill(c)
	if err != nil {
		return err
	}

	demos, err := resolveDemos(a, c, s.Name)
	if err != nil {
		return err
	}

	if out := c.String("out"); out != "" {
		if err := skill.WriteMarkdown(out, s, demos); err != nil {
			return err
		}
		utils.PrintSuccess(fmt.Sprintf("Skill exported to %s (%d demonstrations)", out, len(demos)))
		return nil
	}

	markdown, err := skill.ExportMarkdown(s, demos)
	if err != nil {
		return err
	}
	rendered, err := skill.Preview(markdown)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}
