package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"meal-planner/internal/bmi"
	"meal-planner/internal/fallback"
	"meal-planner/internal/guideline"
	"meal-planner/internal/llm"
	"meal-planner/internal/prompt"
)

// Source tells where a recommendation came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Request is one submission from a front end.
type Request struct {
	AgeMonths int
	WeightKg  float64
	HeightCm  float64
	Text      string
}

// Result is the outcome of a planning run. A failed model call still yields a
// Result with Source set to SourceFallback.
type Result struct {
	Profile        bmi.Profile
	BMI            bmi.Result
	Guideline      guideline.Entry
	Request        string
	Text           string
	Source         Source
	Model          string
	FallbackReason string
}

// Planner runs the validate, classify, prompt, infer and fallback pipeline.
type Planner struct {
	table    *guideline.Table
	selector *fallback.Selector
	client   llm.Client
	log      *slog.Logger
}

func New(table *guideline.Table, selector *fallback.Selector, client llm.Client, log *slog.Logger) (*Planner, error) {
	if table == nil || selector == nil || client == nil {
		return nil, errors.New("planner requires a guideline table, fallback selector and llm client")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Planner{table: table, selector: selector, client: client, log: log}, nil
}

// Plan returns a recommendation for the request. Invalid measurements fail
// with bmi.ErrInvalidInput; model failures never surface as errors.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	profile, err := bmi.NewProfile(req.AgeMonths, req.WeightKg, req.HeightCm)
	if err != nil {
		return Result{}, err
	}
	res, err := bmi.Calculate(profile)
	if err != nil {
		return Result{}, err
	}
	entry, err := p.table.Lookup(profile.AgeMonths())
	if err != nil {
		return Result{}, err
	}

	out := Result{
		Profile:   profile,
		BMI:       res,
		Guideline: entry,
		Request:   req.Text,
	}

	pr := prompt.Build(prompt.Input{
		Profile:     profile,
		BMI:         res,
		Guideline:   entry,
		Adjustments: p.adjustments(),
		Request:     req.Text,
	})
	text, err := p.client.Complete(ctx, pr.System, pr.User)
	if err == nil {
		out.Text = text
		out.Source = SourceModel
		out.Model = p.client.Model()
		return out, nil
	}

	p.log.Warn("model call failed, using fallback",
		"err", err,
		"age_months", profile.AgeMonths(),
		"category", res.Category,
	)
	text, ferr := p.selector.Select(res, profile.AgeMonths(), req.Text)
	if ferr != nil {
		// The selector covers every key of a validated table.
		return Result{}, fmt.Errorf("fallback selection failed: %w", ferr)
	}
	out.Text = text
	out.Source = SourceFallback
	out.FallbackReason = err.Error()
	return out, nil
}

func (p *Planner) adjustments() map[bmi.Category]string {
	out := make(map[bmi.Category]string, len(bmi.Categories))
	for _, c := range bmi.Categories {
		if text, ok := p.table.Adjustment(c); ok {
			out[c] = text
		}
	}
	return out
}

// Guideline exposes the band lookup for front ends.
func (p *Planner) Guideline(ageMonths int) (guideline.Entry, error) {
	return p.table.Lookup(ageMonths)
}
