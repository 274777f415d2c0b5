package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"meal-planner/internal/app"
	"meal-planner/internal/logger"
	"meal-planner/internal/planner"
)

// plannerFactory builds the pipeline once per command run.
type plannerFactory func(log *slog.Logger) (*planner.Planner, error)

func Execute() {
	cmd := newRootCmd(buildPlanner, time.Now)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildPlanner(log *slog.Logger) (*planner.Planner, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.BuildPlanner(cfg, log)
}

func newRootCmd(build plannerFactory, now func() time.Time) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "mealplan",
		Short:        "Meal suggestions for children aged 0 to 5 years",
		SilenceUsage: true,
	}

	newLogger := func(w io.Writer) *slog.Logger {
		level := "warn"
		if debug {
			level = "debug"
		}
		return logger.NewWithWriter(w, level, "text")
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "log pipeline details to stderr")
	cmd.AddCommand(suggestCmd(build, newLogger, now))
	cmd.AddCommand(guidelinesCmd(build, newLogger))
	return cmd
}
