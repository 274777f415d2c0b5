package guideline

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"meal-planner/internal/bmi"
)

//go:embed guidelines.yaml
var defaultDocument []byte

// ErrInvalidTable reports a guideline document that is not exhaustive over
// the supported age range or is otherwise malformed.
var ErrInvalidTable = errors.New("invalid guideline table")

// SafetyRule applies to every band that ends before UnderMonths.
type SafetyRule struct {
	ID          string `yaml:"id" json:"id"`
	UnderMonths int    `yaml:"under_months" json:"under_months"`
	Note        string `yaml:"note" json:"note"`
}

// Entry is the guidance for one contiguous age band. Min and max are inclusive.
type Entry struct {
	Label          string   `yaml:"label" json:"label"`
	MinMonths      int      `yaml:"min_months" json:"min_months"`
	MaxMonths      int      `yaml:"max_months" json:"max_months"`
	Primary        string   `yaml:"primary" json:"primary"`
	Considerations string   `yaml:"considerations" json:"considerations"`
	Calories       string   `yaml:"calories" json:"calories"`
	Meals          []string `yaml:"meals" json:"meals"`
	SafetyNotes    []string `yaml:"-" json:"safety_notes"`
}

// Contains reports whether ageMonths falls inside the band.
func (e Entry) Contains(ageMonths int) bool {
	return ageMonths >= e.MinMonths && ageMonths <= e.MaxMonths
}

func (e Entry) clone() Entry {
	e.Meals = append([]string(nil), e.Meals...)
	e.SafetyNotes = append([]string(nil), e.SafetyNotes...)
	return e
}

type document struct {
	GeneralSafety []string          `yaml:"general_safety"`
	SafetyRules   []SafetyRule      `yaml:"safety_rules"`
	Bands         []Entry           `yaml:"bands"`
	Adjustments   map[string]string `yaml:"adjustments"`
}

// Table is the read-only guideline lookup shared by all requests.
type Table struct {
	entries     []Entry
	rules       []SafetyRule
	adjustments map[bmi.Category]string
}

// Default parses the guideline document compiled into the binary.
func Default() (*Table, error) {
	return Parse(defaultDocument)
}

// Load reads a guideline document from path, or the built-in one when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guideline file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML guideline document.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	entries := append([]Entry(nil), doc.Bands...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].MinMonths < entries[j].MinMonths })
	if err := validateBands(entries); err != nil {
		return nil, err
	}
	if err := validateRules(doc.SafetyRules, entries); err != nil {
		return nil, err
	}
	adjustments, err := parseAdjustments(doc.Adjustments)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		var notes []string
		for _, rule := range doc.SafetyRules {
			if entries[i].MaxMonths < rule.UnderMonths {
				notes = append(notes, rule.Note)
			}
		}
		entries[i].SafetyNotes = append(notes, doc.GeneralSafety...)
	}

	return &Table{
		entries:     entries,
		rules:       append([]SafetyRule(nil), doc.SafetyRules...),
		adjustments: adjustments,
	}, nil
}

func validateBands(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no age bands", ErrInvalidTable)
	}
	next := bmi.MinAgeMonths
	labels := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Label == "" || e.Primary == "" {
			return fmt.Errorf("%w: band starting at %d needs a label and primary approach", ErrInvalidTable, e.MinMonths)
		}
		// Labels key the fallback texts.
		if labels[e.Label] {
			return fmt.Errorf("%w: duplicate band label %q", ErrInvalidTable, e.Label)
		}
		labels[e.Label] = true
		if len(e.Meals) == 0 {
			return fmt.Errorf("%w: band %q has no meal ideas", ErrInvalidTable, e.Label)
		}
		if e.MaxMonths < e.MinMonths {
			return fmt.Errorf("%w: band %q ends before it starts", ErrInvalidTable, e.Label)
		}
		switch {
		case e.MinMonths > next:
			return fmt.Errorf("%w: gap between %d and %d months", ErrInvalidTable, next, e.MinMonths-1)
		case e.MinMonths < next:
			return fmt.Errorf("%w: band %q overlaps the previous band", ErrInvalidTable, e.Label)
		}
		next = e.MaxMonths + 1
	}
	if next-1 != bmi.MaxAgeMonths {
		return fmt.Errorf("%w: bands end at %d months, want %d", ErrInvalidTable, next-1, bmi.MaxAgeMonths)
	}
	return nil
}

// validateRules keeps every rule boundary on a band edge so safety notes are
// constant within a band.
func validateRules(rules []SafetyRule, entries []Entry) error {
	for _, rule := range rules {
		if rule.Note == "" {
			return fmt.Errorf("%w: safety rule %q has no note", ErrInvalidTable, rule.ID)
		}
		for _, e := range entries {
			if e.MinMonths < rule.UnderMonths && e.MaxMonths >= rule.UnderMonths {
				return fmt.Errorf("%w: safety rule %q boundary %d splits band %q", ErrInvalidTable, rule.ID, rule.UnderMonths, e.Label)
			}
		}
	}
	return nil
}

func parseAdjustments(raw map[string]string) (map[bmi.Category]string, error) {
	out := make(map[bmi.Category]string, len(bmi.Categories))
	for _, c := range bmi.Categories {
		text, ok := raw[string(c)]
		if !ok || text == "" {
			return nil, fmt.Errorf("%w: missing adjustment for category %q", ErrInvalidTable, c)
		}
		out[c] = text
	}
	if len(raw) != len(out) {
		for key := range raw {
			if _, ok := out[bmi.Category(key)]; !ok {
				return nil, fmt.Errorf("%w: unknown category %q in adjustments", ErrInvalidTable, key)
			}
		}
	}
	return out, nil
}

// Lookup returns the band containing ageMonths.
func (t *Table) Lookup(ageMonths int) (Entry, error) {
	for _, e := range t.entries {
		if e.Contains(ageMonths) {
			return e.clone(), nil
		}
	}
	return Entry{}, fmt.Errorf("%w: no guideline band for %d months", bmi.ErrInvalidInput, ageMonths)
}

// Entries returns a copy of every band in ascending age order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.clone()
	}
	return out
}

// Rules returns the age-gated safety rules.
func (t *Table) Rules() []SafetyRule {
	return append([]SafetyRule(nil), t.rules...)
}

// Adjustment returns the BMI-specific feeding adjustment for a category.
func (t *Table) Adjustment(c bmi.Category) (string, bool) {
	text, ok := t.adjustments[c]
	return text, ok
}
