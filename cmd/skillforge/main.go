package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/app"
	"github.com/skillforge/skillforge/internal/commands"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cliApp := &cli.App{
		Name:  "skillforge",
		Usage: "Evaluate and optimize LLM code-review skills",
		Description: "Skillforge evaluates code-review skill prompts against a ground-truth corpus,\n" +
			"bootstraps few-shot demonstrations from the skill's own best outputs, and\n" +
			"compares runs to tell real improvements from noise.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Before: func(c *cli.Context) error {
			application, err := app.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.EvaluateCommand(),
			commands.OptimizeCommand(),
			commands.CompareCommand(),
			commands.RunsCommand(),
			commands.ExportCommand(),
			commands.MigrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
