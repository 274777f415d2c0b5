package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"meal-planner/internal/bmi"
	"meal-planner/internal/planner"
	"meal-planner/internal/report"
)

func suggestCmd(build plannerFactory, newLogger func(io.Writer) *slog.Logger, now func() time.Time) *cobra.Command {
	var (
		age     int
		weight  float64
		height  float64
		request string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Classify a child's BMI and print meal suggestions",
		Long: "Classify a child's BMI and print meal suggestions.\n" +
			"Measurements not given as flags are asked for on stdin.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			in := bufio.NewReader(c.InOrStdin())
			prompts := c.ErrOrStderr()

			if !c.Flags().Changed("age") {
				v, err := ask(in, prompts, "Age in months (0-60): ", strconv.Atoi)
				if err != nil {
					return err
				}
				age = v
			}
			if !c.Flags().Changed("weight") {
				v, err := ask(in, prompts, "Weight in kg: ", parseFloat)
				if err != nil {
					return err
				}
				weight = v
			}
			if !c.Flags().Changed("height") {
				v, err := ask(in, prompts, "Height in cm: ", parseFloat)
				if err != nil {
					return err
				}
				height = v
			}

			p, err := build(newLogger(c.ErrOrStderr()))
			if err != nil {
				return err
			}
			res, err := p.Plan(c.Context(), planner.Request{
				AgeMonths: age,
				WeightKg:  weight,
				HeightCm:  height,
				Text:      request,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(c.OutOrStdout(), report.Markdown(res, now()))
			return err
		},
	}

	cmd.Flags().IntVar(&age, "age", 0, "age in months (0-60)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "weight in kg")
	cmd.Flags().Float64Var(&height, "height", 0, "height in cm")
	cmd.Flags().StringVarP(&request, "request", "r", "", "what kind of meals to suggest (optional)")
	return cmd
}

// ask prints label and parses one line of input.
func ask[T any](in *bufio.Reader, out io.Writer, label string, parse func(string) (T, error)) (T, error) {
	var zero T
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return zero, fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	v, err := parse(line)
	if err != nil {
		return zero, fmt.Errorf("%w: %q is not a number", bmi.ErrInvalidInput, line)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
