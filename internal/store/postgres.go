package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"meal-planner/internal/retry"
)

const (
	// arbitrary number for this application's migration lock
	migrationLockID = 482910377

	MaxListLimit = 100
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens the database, waits for it to accept connections and
// applies the schema.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := retry.Do(ctx, 5, 500*time.Millisecond, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database not reachable: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies the schema while holding an advisory lock. Session locks
// belong to one connection, so the lock, DDL and unlock share a pinned conn.
// A recorder that waits on the lock re-runs the idempotent DDL afterwards.
func (s *PostgresStore) migrate(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS consultations (
			id UUID PRIMARY KEY,
			age_months INT NOT NULL,
			weight_kg DOUBLE PRECISION NOT NULL,
			height_cm DOUBLE PRECISION NOT NULL,
			bmi DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			age_band TEXT NOT NULL,
			source TEXT NOT NULL,
			model TEXT,
			fallback_reason TEXT,
			request TEXT,
			recommendation TEXT NOT NULL,
			safety_notes TEXT[],
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS consultations_created_at_idx ON consultations (created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveConsultation inserts a consultation. Replayed tasks with the same id
// are ignored.
func (s *PostgresStore) SaveConsultation(ctx context.Context, c Consultation) error {
	if c.ID == uuid.Nil {
		return errors.New("consultation id required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consultations(id, age_months, weight_kg, height_cm, bmi, category, age_band,
			source, model, fallback_reason, request, recommendation, safety_notes, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.AgeMonths, c.WeightKg, c.HeightCm, c.BMI, c.Category, c.AgeBand,
		c.Source, c.Model, c.FallbackReason, c.Request, c.Recommendation,
		pq.Array(nonNil(c.SafetyNotes)), c.CreatedAt)
	return err
}

const selectColumns = `id, age_months, weight_kg, height_cm, bmi, category, age_band,
	source, COALESCE(model, ''), COALESCE(fallback_reason, ''), COALESCE(request, ''),
	recommendation, COALESCE(safety_notes, ARRAY[]::TEXT[]), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row scanner) (Consultation, error) {
	var c Consultation
	var notes []string
	err := row.Scan(&c.ID, &c.AgeMonths, &c.WeightKg, &c.HeightCm, &c.BMI, &c.Category, &c.AgeBand,
		&c.Source, &c.Model, &c.FallbackReason, &c.Request, &c.Recommendation, pq.Array(&notes), &c.CreatedAt)
	c.SafetyNotes = notes
	return c, err
}

func (s *PostgresStore) GetConsultation(ctx context.Context, id uuid.UUID) (Consultation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM consultations WHERE id=$1`, id)
	c, err := scanConsultation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Consultation{}, ErrConsultationNotFound
		}
		return Consultation{}, fmt.Errorf("failed to get consultation %s: %w", id, err)
	}
	return c, nil
}

// ListConsultations returns the newest consultations first.
func (s *PostgresStore) ListConsultations(ctx context.Context, limit int) ([]Consultation, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM consultations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
