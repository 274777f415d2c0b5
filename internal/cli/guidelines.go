package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func guidelinesCmd(build plannerFactory, newLogger func(io.Writer) *slog.Logger) *cobra.Command {
	var age int

	cmd := &cobra.Command{
		Use:   "guidelines",
		Short: "Print the feeding guidelines for an age",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			p, err := build(newLogger(c.ErrOrStderr()))
			if err != nil {
				return err
			}
			e, err := p.Guideline(age)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "Age band:        %s\n", e.Label)
			fmt.Fprintf(out, "Primary:         %s\n", e.Primary)
			if e.Considerations != "" {
				fmt.Fprintf(out, "Considerations:  %s\n", e.Considerations)
			}
			if e.Calories != "" {
				fmt.Fprintf(out, "Calories:        %s\n", e.Calories)
			}
			fmt.Fprintln(out, "\nMeal ideas:")
			for _, m := range e.Meals {
				fmt.Fprintf(out, "- %s\n", m)
			}
			fmt.Fprintln(out, "\nSafety:")
			fmt.Fprintf(out, "- %s\n", strings.Join(e.SafetyNotes, "\n- "))
			return nil
		},
	}

	cmd.Flags().IntVar(&age, "age", 0, "age in months (0-60)")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}
