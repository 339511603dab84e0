// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/acuity/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/acuity/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage decisions in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const decisionColumns = `id, patient_id, name, age, risk, intervention, severity, source, location, created_at`

// Get retrieves a decision by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Decision, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + decisionColumns + ` FROM triage_decisions WHERE id = $1`
	d, err := scanDecision(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if d == nil {
		return nil, false, nil
	}
	return d, true, nil
}

// Put inserts or updates a decision.
func (s *Store) Put(ctx context.Context, d *triage.Decision) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	query := `
		INSERT INTO triage_decisions (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			risk = EXCLUDED.risk,
			intervention = EXCLUDED.intervention,
			severity = EXCLUDED.severity,
			source = EXCLUDED.source,
			location = EXCLUDED.location`

	_, err := s.pool.Exec(ctx, query,
		d.ID, d.PatientID, d.Name, d.Age, string(d.Risk), string(d.Intervention),
		d.Severity, string(d.Source), d.Location, d.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert decision: %w", err)
	}
	return nil
}

// List returns up to limit decisions, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]*triage.Decision, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + decisionColumns + ` FROM triage_decisions ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*triage.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

func scanDecision(row pgx.Row) (*triage.Decision, error) {
	var d triage.Decision
	var risk, intervention, source string
	err := row.Scan(
		&d.ID, &d.PatientID, &d.Name, &d.Age, &risk, &intervention,
		&d.Severity, &source, &d.Location, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan decision: %w", err)
	}
	d.Risk = triage.Risk(risk)
	d.Intervention = triage.Intervention(intervention)
	d.Source = triage.Source(source)
	return &d, nil
}
