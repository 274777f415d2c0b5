package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/fallback"
	"meal-planner/internal/guideline"
	"meal-planner/internal/llm"
	"meal-planner/internal/planner"
	"meal-planner/internal/queue"
	"meal-planner/internal/ratelimit"
	"meal-planner/internal/store"
)

const modelAnswer = "Breakfast: oatmeal with mashed banana. Lunch: soft lentil stew with rice. Snack: plain yogurt."

func newTestDeps(t *testing.T, l llm.Client, q queue.Queue) app.Deps {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := guideline.Default()
	if err != nil {
		t.Fatalf("failed to load guidelines: %v", err)
	}
	sel, err := fallback.New(table)
	if err != nil {
		t.Fatalf("failed to build selector: %v", err)
	}
	p, err := planner.New(table, sel, l, log)
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}
	return app.Deps{
		Config:  config.Config{Port: 8080},
		Log:     log,
		Planner: p,
		Limiter: ratelimit.NewNoOpLimiter(),
		Queue:   q,
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
}

func TestSuggestionHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setup          func(*llm.MockClient, *queue.MockQueue)
		wantStatusCode int
		checkResponse  func(*testing.T, suggestionResponse, *queue.MockQueue)
	}{
		{
			name:        "model answer for healthy toddler",
			requestBody: `{"age_months": 18, "weight_kg": 11.0, "height_cm": 82, "request": "Suggest a healthy breakfast"}`,
			setup: func(l *llm.MockClient, q *queue.MockQueue) {
				l.On("Complete", mock.Anything, mock.Anything, mock.MatchedBy(func(user string) bool {
					return strings.HasSuffix(user, "Specifically: Suggest a healthy breakfast")
				})).Return(modelAnswer, nil).Once()
				l.On("Model").Return("meta-llama/Llama-3.2-3B-Instruct").Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, resp suggestionResponse, q *queue.MockQueue) {
				if resp.Source != "model" || resp.Recommendation != modelAnswer {
					t.Errorf("expected model answer, got %+v", resp)
				}
				if resp.BMI != 16.36 || resp.Category != "healthy" || resp.AgeBand != "12–24 months" {
					t.Errorf("unexpected classification %+v", resp)
				}
				if !strings.Contains(resp.Report, "*Generated at: 2026-10-19 08:30:00 UTC*") {
					t.Errorf("expected report timestamp, got %q", resp.Report)
				}

				tasks := q.Enqueued(queue.TaskTypeConsultation)
				if len(tasks) != 1 {
					t.Fatalf("expected 1 consultation task, got %d", len(tasks))
				}
				var c store.Consultation
				if err := json.Unmarshal(tasks[0].Payload, &c); err != nil {
					t.Fatalf("invalid payload: %v", err)
				}
				if c.ID.String() != resp.ConsultationID || c.Source != "model" || c.AgeMonths != 18 {
					t.Errorf("unexpected consultation %+v", c)
				}
			},
		},
		{
			name:        "model failure returns fallback with honey note",
			requestBody: `{"age_months": 8, "weight_kg": 5.0, "height_cm": 65}`,
			setup: func(l *llm.MockClient, q *queue.MockQueue) {
				l.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("401 unauthorized")).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, resp suggestionResponse, q *queue.MockQueue) {
				if resp.Source != "fallback" || resp.FallbackReason != "401 unauthorized" {
					t.Errorf("expected fallback, got %+v", resp)
				}
				if resp.Category != "underweight" {
					t.Errorf("expected underweight, got %s", resp.Category)
				}
				if !strings.Contains(resp.Recommendation, "honey") {
					t.Error("expected honey note in fallback")
				}
				if resp.Model != "" {
					t.Errorf("fallback must not name a model, got %q", resp.Model)
				}
			},
		},
		{
			name:        "queue failure does not fail the request",
			requestBody: `{"age_months": 48, "weight_kg": 25, "height_cm": 95}`,
			setup: func(l *llm.MockClient, q *queue.MockQueue) {
				l.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("timeout")).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Times(3)
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, resp suggestionResponse, q *queue.MockQueue) {
				if resp.Category != "overweight" || resp.AgeBand != "48–60 months" {
					t.Errorf("unexpected classification %+v", resp)
				}
			},
		},
		{
			name:           "invalid JSON payload returns 400",
			requestBody:    `{invalid json}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing age fails validation",
			requestBody:    `{"weight_kg": 11, "height_cm": 82}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "age above 60 fails validation",
			requestBody:    `{"age_months": 61, "weight_kg": 11, "height_cm": 82}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "zero weight fails validation",
			requestBody:    `{"age_months": 12, "weight_kg": 0, "height_cm": 82}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "negative height fails validation",
			requestBody:    `{"age_months": 12, "weight_kg": 9, "height_cm": -1}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "height that overflows BMI is rejected",
			requestBody:    `{"age_months": 24, "weight_kg": 10, "height_cm": 1e-160}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "weight that underflows BMI is rejected",
			requestBody:    `{"age_months": 24, "weight_kg": 1e-5, "height_cm": 1e200}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "request too long fails validation",
			requestBody:    `{"age_months": 12, "weight_kg": 9, "height_cm": 75, "request": "` + strings.Repeat("a", 1001) + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := new(llm.MockClient)
			mockQueue := new(queue.MockQueue)
			if tt.setup != nil {
				tt.setup(mockLLM, mockQueue)
			}

			deps := newTestDeps(t, mockLLM, mockQueue)
			handler := suggestionHandler(deps, fixedNow)

			req := httptest.NewRequest(http.MethodPost, "/api/suggestions", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatusCode, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil {
				var resp suggestionResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, resp, mockQueue)
			}

			mockLLM.AssertExpectations(t)
			mockQueue.AssertExpectations(t)
		})
	}
}

func TestGuidelineHandler(t *testing.T) {
	deps := newTestDeps(t, new(llm.MockClient), queue.NewNoOpQueue())
	router := newRouter(deps)

	tests := []struct {
		path       string
		wantStatus int
		wantLabel  string
	}{
		{"/api/guidelines/18", http.StatusOK, "12–24 months"},
		{"/api/guidelines/48", http.StatusOK, "48–60 months"},
		{"/api/guidelines/61", http.StatusBadRequest, ""},
		{"/api/guidelines/abc", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantLabel == "" {
				return
			}
			var entry guideline.Entry
			if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
				t.Fatalf("failed to decode entry: %v", err)
			}
			if entry.Label != tt.wantLabel {
				t.Errorf("expected %q, got %q", tt.wantLabel, entry.Label)
			}
		})
	}
}

func TestSuggestionRouteIsRateLimited(t *testing.T) {
	deps := newTestDeps(t, new(llm.MockClient), queue.NewNoOpQueue())
	limiter := new(ratelimit.MockLimiter)
	limiter.On("Allow", mock.Anything, mock.Anything).
		Return(ratelimit.Decision{Allowed: false, RetryAfter: 30 * time.Second}, nil).Once()
	deps.Limiter = limiter

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/suggestions", bytes.NewBufferString(`{}`))
	newRouter(deps).ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	limiter.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	deps := newTestDeps(t, new(llm.MockClient), queue.NewNoOpQueue())
	w := httptest.NewRecorder()
	newRouter(deps).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
