package fallback

import (
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/bmi"
	"meal-planner/internal/guideline"
)

// ErrNoFallback means no pre-authored text exists for a (category, band) pair.
var ErrNoFallback = errors.New("no fallback recommendation")

// UnavailableNote closes every fallback text.
const UnavailableNote = "**Note:** The meal suggestion model is temporarily unavailable - showing evidence-based guidelines instead."

// Key identifies one pre-authored recommendation.
type Key struct {
	Category bmi.Category
	Band     string
}

// Selector picks rule-based recommendations when the model cannot answer.
// It is read-only after New and safe for concurrent use.
type Selector struct {
	table *guideline.Table
	texts map[Key]string
}

// New renders a recommendation for every category and band in the table.
func New(table *guideline.Table) (*Selector, error) {
	if table == nil {
		return nil, errors.New("guideline table required")
	}
	entries := table.Entries()
	texts := make(map[Key]string, len(entries)*len(bmi.Categories))
	for _, entry := range entries {
		for _, c := range bmi.Categories {
			adjustment, ok := table.Adjustment(c)
			if !ok {
				return nil, fmt.Errorf("%w: category %s has no adjustment", ErrNoFallback, c)
			}
			texts[Key{Category: c, Band: entry.Label}] = render(entry, c, adjustment)
		}
	}
	return &Selector{table: table, texts: texts}, nil
}

// Select returns the recommendation for the result's category and the band
// containing ageMonths. The request only appears as an echo at the top.
func (s *Selector) Select(result bmi.Result, ageMonths int, request string) (string, error) {
	entry, err := s.table.Lookup(ageMonths)
	if err != nil {
		return "", err
	}
	body, ok := s.texts[Key{Category: result.Category, Band: entry.Label}]
	if !ok {
		return "", fmt.Errorf("%w: category %q, band %q", ErrNoFallback, result.Category, entry.Label)
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return body, nil
	}
	return fmt.Sprintf("**Your request:** %s\n\n%s", request, body), nil
}

// Keys lists every pair the selector can answer.
func (s *Selector) Keys() []Key {
	keys := make([]Key, 0, len(s.texts))
	for k := range s.texts {
		keys = append(keys, k)
	}
	return keys
}

func render(entry guideline.Entry, c bmi.Category, adjustment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Age-Appropriate Meal Suggestions (%s):**\n", entry.Label)
	writeList(&b, entry.Meals)
	fmt.Fprintf(&b, "\n**Adjustments for %s:**\n", c.Label())
	writeList(&b, []string{adjustment})
	b.WriteString("\n**Safety Notes:**\n")
	writeList(&b, entry.SafetyNotes)
	b.WriteString("\n**Guidelines for This Age Group:**\n")
	fmt.Fprintf(&b, "- **Primary approach:** %s\n", entry.Primary)
	fmt.Fprintf(&b, "- **Key considerations:** %s\n", entry.Considerations)
	fmt.Fprintf(&b, "- **Estimated daily calories:** %s\n", entry.Calories)
	b.WriteString("\n")
	b.WriteString(UnavailableNote)
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
