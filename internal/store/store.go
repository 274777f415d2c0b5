package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrConsultationNotFound = errors.New("consultation not found")

// Consultation is the audit record of one answered suggestion request.
type Consultation struct {
	ID             uuid.UUID `json:"id"`
	AgeMonths      int       `json:"age_months"`
	WeightKg       float64   `json:"weight_kg"`
	HeightCm       float64   `json:"height_cm"`
	BMI            float64   `json:"bmi"`
	Category       string    `json:"category"`
	AgeBand        string    `json:"age_band"`
	Source         string    `json:"source"`
	Model          string    `json:"model,omitempty"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	Request        string    `json:"request"`
	Recommendation string    `json:"recommendation"`
	SafetyNotes    []string  `json:"safety_notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store defines persistence for consultation history.
type Store interface {
	SaveConsultation(ctx context.Context, c Consultation) error
	GetConsultation(ctx context.Context, id uuid.UUID) (Consultation, error)
	ListConsultations(ctx context.Context, limit int) ([]Consultation, error)
	Ping(ctx context.Context) error
}
