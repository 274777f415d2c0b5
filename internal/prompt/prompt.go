package prompt

import (
	"fmt"
	"strings"

	"meal-planner/internal/bmi"
	"meal-planner/internal/guideline"
)

// DefaultRequest is used when the caller leaves the free-text request empty.
const DefaultRequest = "General healthy meal ideas for a typical day."

// Prompt is the instruction pair sent to the inference client.
type Prompt struct {
	System string
	User   string
}

// Input carries everything the prompt is built from.
type Input struct {
	Profile   bmi.Profile
	BMI       bmi.Result
	Guideline guideline.Entry
	// Adjustments maps each category to its feeding adjustment.
	Adjustments map[bmi.Category]string
	Request     string
}

// Build composes the system instruction and user message.
func Build(in Input) Prompt {
	return Prompt{
		System: buildSystem(in),
		User:   buildUser(in),
	}
}

func buildSystem(in Input) string {
	var b strings.Builder
	b.WriteString("You are a specialized pediatric nutrition assistant trained on evidence-based dietary guidelines for children aged 0-5 years.\n")

	b.WriteString("CHILD PROFILE:\n")
	fmt.Fprintf(&b, "- Age: %d months (%.1f years)\n", in.Profile.AgeMonths(), in.Profile.AgeYears())
	fmt.Fprintf(&b, "- Weight: %g kg\n", in.Profile.WeightKg())
	fmt.Fprintf(&b, "- Height: %g cm\n", in.Profile.HeightCm())
	fmt.Fprintf(&b, "- BMI: %.1f (%s)\n", in.BMI.BMI, in.BMI.Category.Label())

	fmt.Fprintf(&b, "DIETARY GUIDELINES FOR THIS AGE GROUP (%s):\n", in.Guideline.Label)
	fmt.Fprintf(&b, "- Primary approach: %s\n", in.Guideline.Primary)
	fmt.Fprintf(&b, "- Key considerations: %s\n", in.Guideline.Considerations)
	fmt.Fprintf(&b, "- Estimated daily calories: %s\n", in.Guideline.Calories)

	b.WriteString("SAFETY PROTOCOLS:\n")
	for _, note := range in.Guideline.SafetyNotes {
		fmt.Fprintf(&b, "- %s\n", note)
	}

	b.WriteString("BMI-SPECIFIC ADJUSTMENTS:\n")
	for _, c := range bmi.Categories {
		text, ok := in.Adjustments[c]
		if !ok {
			continue
		}
		marker := ""
		if c == in.BMI.Category {
			marker = " (applies to this child)"
		}
		fmt.Fprintf(&b, "- If %s%s: %s\n", c.Label(), marker, text)
	}

	b.WriteString(`RESPONSE FORMAT:
Provide practical, safe meal suggestions with:
1. Age-appropriate foods and textures
2. Portion sizes suitable for the child's age
3. Nutritional benefits
4. Safety considerations
5. Preparation tips for parents
Always recommend consulting with pediatricians for specific concerns.`)
	return b.String()
}

func buildUser(in Input) string {
	request := strings.TrimSpace(in.Request)
	if request == "" {
		request = DefaultRequest
	}
	return fmt.Sprintf("Please suggest meal options for a %d-month-old child who is %s. Specifically: %s",
		in.Profile.AgeMonths(), strings.ToLower(in.BMI.Category.Label()), request)
}
