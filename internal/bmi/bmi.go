package bmi

import (
	"errors"
	"fmt"
	"math"
)

// Age limits for the pediatric range this package supports.
const (
	MinAgeMonths = 0
	MaxAgeMonths = 60
)

// ErrInvalidInput reports a profile field outside the accepted range.
var ErrInvalidInput = errors.New("invalid input")

// Category is a pediatric BMI classification.
type Category string

const (
	CategoryUnderweight Category = "underweight"
	CategoryHealthy     Category = "healthy"
	CategoryAtRisk      Category = "at-risk"
	CategoryOverweight  Category = "overweight"
)

// Categories lists every category in ascending BMI order.
var Categories = []Category{CategoryUnderweight, CategoryHealthy, CategoryAtRisk, CategoryOverweight}

// Profile is a validated child measurement. Use NewProfile to build one.
type Profile struct {
	ageMonths int
	weightKg  float64
	heightCm  float64
}

// NewProfile validates the measurements and returns an immutable profile.
func NewProfile(ageMonths int, weightKg, heightCm float64) (Profile, error) {
	if err := validate(ageMonths, weightKg, heightCm); err != nil {
		return Profile{}, err
	}
	return Profile{ageMonths: ageMonths, weightKg: weightKg, heightCm: heightCm}, nil
}

// AgeMonths returns the age in whole months.
func (p Profile) AgeMonths() int { return p.ageMonths }

// WeightKg returns the weight in kilograms.
func (p Profile) WeightKg() float64 { return p.weightKg }

// HeightCm returns the height in centimeters.
func (p Profile) HeightCm() float64 { return p.heightCm }

// AgeYears returns the age in fractional years.
func (p Profile) AgeYears() float64 { return float64(p.ageMonths) / 12 }

func validate(ageMonths int, weightKg, heightCm float64) error {
	if ageMonths < MinAgeMonths || ageMonths > MaxAgeMonths {
		return fmt.Errorf("%w: age_months %d outside %d-%d", ErrInvalidInput, ageMonths, MinAgeMonths, MaxAgeMonths)
	}
	if !positive(weightKg) {
		return fmt.Errorf("%w: weight_kg must be positive, got %v", ErrInvalidInput, weightKg)
	}
	if !positive(heightCm) {
		return fmt.Errorf("%w: height_cm must be positive, got %v", ErrInvalidInput, heightCm)
	}
	// Finite inputs can still overflow or underflow the division.
	if v := compute(weightKg, heightCm); !positive(v) {
		return fmt.Errorf("%w: weight_kg %v and height_cm %v give no usable BMI", ErrInvalidInput, weightKg, heightCm)
	}
	return nil
}

func compute(weightKg, heightCm float64) float64 {
	meters := heightCm / 100
	return weightKg / (meters * meters)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Result is the computed BMI and its category.
type Result struct {
	BMI      float64
	Category Category
}

// thresholds are upper bounds (exclusive) for underweight, healthy and at-risk.
type thresholds struct {
	underweight float64
	healthy     float64
	atRisk      float64
}

var (
	infantThresholds    = thresholds{underweight: 14.0, healthy: 18.0, atRisk: 20.0}
	preschoolThresholds = thresholds{underweight: 13.5, healthy: 17.0, atRisk: 19.0}
)

// Calculate computes BMI from weight and height in meters squared and
// classifies it with age-banded cutoffs.
func Calculate(p Profile) (Result, error) {
	// A zero Profile bypasses NewProfile, so check again.
	if err := validate(p.ageMonths, p.weightKg, p.heightCm); err != nil {
		return Result{}, err
	}
	value := compute(p.weightKg, p.heightCm)
	return Result{BMI: value, Category: classify(value, p.ageMonths)}, nil
}

func classify(value float64, ageMonths int) Category {
	t := preschoolThresholds
	if ageMonths < 24 {
		t = infantThresholds
	}
	switch {
	case value < t.underweight:
		return CategoryUnderweight
	case value < t.healthy:
		return CategoryHealthy
	case value < t.atRisk:
		return CategoryAtRisk
	default:
		return CategoryOverweight
	}
}

// Label returns the human readable name used in prompts and reports.
func (c Category) Label() string {
	switch c {
	case CategoryUnderweight:
		return "Underweight"
	case CategoryHealthy:
		return "Healthy weight"
	case CategoryAtRisk:
		return "At risk of overweight"
	case CategoryOverweight:
		return "Overweight"
	default:
		return string(c)
	}
}
