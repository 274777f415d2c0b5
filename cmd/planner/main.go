package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"meal-planner/internal/app"
	"meal-planner/internal/bmi"
	"meal-planner/internal/httputil"
	"meal-planner/internal/planner"
	"meal-planner/internal/queue"
	"meal-planner/internal/report"
	"meal-planner/internal/store"
)

type suggestionRequest struct {
	AgeMonths *int     `json:"age_months" validate:"required,min=0,max=60"`
	WeightKg  *float64 `json:"weight_kg" validate:"required,gt=0"`
	HeightCm  *float64 `json:"height_cm" validate:"required,gt=0"`
	Request   string   `json:"request" validate:"max=1000"`
}

type suggestionResponse struct {
	ConsultationID string   `json:"consultation_id"`
	BMI            float64  `json:"bmi"`
	Category       string   `json:"category"`
	AgeBand        string   `json:"age_band"`
	SafetyNotes    []string `json:"safety_notes"`
	Recommendation string   `json:"recommendation"`
	Source         string   `json:"source"`
	Model          string   `json:"model,omitempty"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
	Report         string   `json:"report"`
}

const requestTimeout = 90 * time.Second

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Limiter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httputil.Serve(ctx, srv, deps.Log); err != nil {
		deps.Log.Error("server error", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("planner stopped")
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, requestTimeout)

	r.With(httputil.RateLimit(deps.Limiter, deps.Log)).Post("/api/suggestions", suggestionHandler(deps, time.Now))
	r.Get("/api/guidelines/{months}", guidelineHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func suggestionHandler(deps app.Deps, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}

		// Validate request
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		ctx := r.Context()
		res, err := deps.Planner.Plan(ctx, planner.Request{
			AgeMonths: *req.AgeMonths,
			WeightKg:  *req.WeightKg,
			HeightCm:  *req.HeightCm,
			Text:      req.Request,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, bmi.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			httputil.Fail(deps.Log, w, err.Error(), err, status)
			return
		}

		created := now().UTC()
		id := uuid.New()
		publishConsultation(ctx, deps, toConsultation(id, res, created))

		httputil.WriteJSON(w, http.StatusOK, suggestionResponse{
			ConsultationID: id.String(),
			BMI:            roundTo(res.BMI.BMI, 2),
			Category:       string(res.BMI.Category),
			AgeBand:        res.Guideline.Label,
			SafetyNotes:    res.Guideline.SafetyNotes,
			Recommendation: res.Text,
			Source:         string(res.Source),
			Model:          res.Model,
			FallbackReason: res.FallbackReason,
			Report:         report.Markdown(res, created),
		})
	}
}

// publishConsultation hands the consultation to the recorder. Failures are
// logged only; the caller already has its recommendation.
func publishConsultation(ctx context.Context, deps app.Deps, c store.Consultation) {
	body, err := json.Marshal(c)
	if err != nil {
		deps.Log.Warn("failed to marshal consultation", "err", err)
		return
	}
	task := queue.Task{Type: queue.TaskTypeConsultation, Payload: body}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 100*time.Millisecond); err != nil {
		deps.Log.Warn("failed to publish consultation", "err", err, "consultation_id", c.ID)
	}
}

func toConsultation(id uuid.UUID, res planner.Result, created time.Time) store.Consultation {
	return store.Consultation{
		ID:             id,
		AgeMonths:      res.Profile.AgeMonths(),
		WeightKg:       res.Profile.WeightKg(),
		HeightCm:       res.Profile.HeightCm(),
		BMI:            res.BMI.BMI,
		Category:       string(res.BMI.Category),
		AgeBand:        res.Guideline.Label,
		Source:         string(res.Source),
		Model:          res.Model,
		FallbackReason: res.FallbackReason,
		Request:        res.Request,
		Recommendation: res.Text,
		SafetyNotes:    res.Guideline.SafetyNotes,
		CreatedAt:      created,
	}
}

func guidelineHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := strconv.Atoi(chi.URLParam(r, "months"))
		if err != nil {
			httputil.Fail(deps.Log, w, "months must be an integer", err, http.StatusBadRequest)
			return
		}
		entry, err := deps.Planner.Guideline(months)
		if err != nil {
			httputil.Fail(deps.Log, w, "months must be between 0 and 60", err, http.StatusBadRequest)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, entry)
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
