package report

import (
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/planner"
)

// Disclaimer closes every report.
const Disclaimer = "*Important: Always consult with your pediatrician for specific dietary concerns or medical conditions.*"

const timeLayout = "2006-01-02 15:04:05"

// Markdown renders a planning result the way the planner front ends display it.
func Markdown(res planner.Result, now time.Time) string {
	var b strings.Builder
	p := res.Profile

	b.WriteString("**Child Profile Summary:**\n")
	fmt.Fprintf(&b, "- **Age:** %d months (%.1f years)\n", p.AgeMonths(), p.AgeYears())
	fmt.Fprintf(&b, "- **Weight:** %g kg\n", p.WeightKg())
	fmt.Fprintf(&b, "- **Height:** %g cm\n", p.HeightCm())
	fmt.Fprintf(&b, "- **BMI:** %.1f (%s)\n\n", res.BMI.BMI, res.BMI.Category.Label())

	switch res.Source {
	case planner.SourceModel:
		b.WriteString("**Dietary Recommendations:**\n")
		b.WriteString(res.Text)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "**General Guidelines for a %d-month-old:**\n", p.AgeMonths())
		fmt.Fprintf(&b, "%s\n", res.Guideline.Primary)
		fmt.Fprintf(&b, "- %s\n", res.Guideline.Considerations)
		fmt.Fprintf(&b, "- %s\n", res.Guideline.Calories)
	default:
		b.WriteString(res.Text)
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	b.WriteString(Disclaimer)
	b.WriteString("\n")
	if res.Source == planner.SourceModel {
		fmt.Fprintf(&b, "*Model used: %s*\n", res.Model)
	}
	fmt.Fprintf(&b, "*Generated at: %s UTC*\n", now.UTC().Format(timeLayout))
	return b.String()
}
