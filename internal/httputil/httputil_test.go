package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/ratelimit"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		decision   ratelimit.Decision
		err        error
		wantStatus int
		wantHeader map[string]string
	}{
		{
			name:       "allowed",
			decision:   ratelimit.Decision{Allowed: true, Remaining: 4},
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{"X-RateLimit-Remaining": "4"},
		},
		{
			name:       "rejected",
			decision:   ratelimit.Decision{Allowed: false, RetryAfter: 12 * time.Second},
			wantStatus: http.StatusTooManyRequests,
			wantHeader: map[string]string{"Retry-After": "12"},
		},
		{
			name:       "limiter error fails open",
			err:        errors.New("redis down"),
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := new(ratelimit.MockLimiter)
			limiter.On("Allow", mock.Anything, "192.0.2.7").Return(tt.decision, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/suggestions", nil)
			req.RemoteAddr = "192.0.2.7:51234"
			w := httptest.NewRecorder()

			RateLimit(limiter, discard())(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, w.Header().Get(k))
			}
			limiter.AssertExpectations(t)
		})
	}
}

func TestValidationError(t *testing.T) {
	type payload struct {
		AgeMonths int `json:"age_months" validate:"min=0,max=60"`
	}
	err := Validator.Struct(payload{AgeMonths: 72})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discard(), w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "must be at most 60", fields["AgeMonths"])
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(discard())(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	failing := func(context.Context) error { return errors.New("db down") }
	HealthHandler(discard(), failing)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecovererAndRouter(t *testing.T) {
	r := NewRouter(discard(), time.Second)
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFailDefaultsTo500(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(discard(), w, "boom", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
