package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"meal-planner/internal/app"
	"meal-planner/internal/httputil"
	"meal-planner/internal/queue"
	"meal-planner/internal/store"
)

const (
	defaultListLimit = 20
	requestTimeout   = 15 * time.Second
)

type listQuery struct {
	Limit int `validate:"min=1,max=100"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.BuildRecorder(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	if c, ok := deps.Store.(io.Closer); ok {
		defer c.Close()
	}
	deps.Log.Info("recorder starting")

	g, ctx := errgroup.WithContext(ctx)

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeConsultation, consultationHandler(deps))
	})

	// Run history API
	g.Go(func() error {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", deps.Config.Port),
			Handler:           newRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return httputil.Serve(ctx, srv, deps.Log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		deps.Log.Error("recorder stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("recorder stopped")
}

func consultationHandler(deps app.RecorderDeps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var c store.Consultation
		if err := json.Unmarshal(task.Payload, &c); err != nil {
			return fmt.Errorf("invalid consultation payload: %w", err)
		}
		if c.ID == uuid.Nil {
			return errors.New("consultation payload has no id")
		}
		if err := deps.Store.SaveConsultation(ctx, c); err != nil {
			return err
		}
		deps.Log.Info("consultation recorded", "consultation_id", c.ID, "source", c.Source)
		return nil
	}
}

func newRouter(deps app.RecorderDeps) http.Handler {
	r := httputil.NewRouter(deps.Log, requestTimeout)

	r.Get("/api/consultations", listHandler(deps))
	r.Get("/api/consultations/{id}", getHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log, deps.Store.Ping))
	return r
}

func getHandler(deps app.RecorderDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid consultation id", err, http.StatusBadRequest)
			return
		}
		c, err := deps.Store.GetConsultation(r.Context(), id)
		if errors.Is(err, store.ErrConsultationNotFound) {
			httputil.Fail(deps.Log, w, "consultation not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load consultation", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, c)
	}
}

func listHandler(deps app.RecorderDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := listQuery{Limit: defaultListLimit}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				httputil.Fail(deps.Log, w, "limit must be an integer", err, http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		if err := httputil.Validator.Struct(&q); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		items, err := deps.Store.ListConsultations(r.Context(), q.Limit)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list consultations", err, http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []store.Consultation{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"consultations": items})
	}
}
