// Package postgres provides PostgreSQL persistence for candidates and
// interview transcripts. Conversation state itself is owned by the in-memory
// session engine; these repositories are its write-through durability layer.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CandidateRepo persists candidate profiles keyed by session id.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

// Upsert inserts or updates the candidate row for the session. The profile is
// re-written whole on every call; later writes win.
func (r *CandidateRepo) Upsert(ctx domain.Context, c domain.Candidate) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `INSERT INTO candidates (session_id, name, email, experience, position, tech_stack, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	      ON CONFLICT (session_id) DO UPDATE SET
	        name = EXCLUDED.name,
	        email = EXCLUDED.email,
	        experience = EXCLUDED.experience,
	        position = EXCLUDED.position,
	        tech_stack = EXCLUDED.tech_stack,
	        updated_at = EXCLUDED.updated_at`
	_, err := r.Pool.Exec(ctx, q, c.SessionID, c.Name, c.Email, c.Experience, c.Position, c.TechStack, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("op=candidate.upsert: %w", err)
	}
	return nil
}

// Get loads a candidate by session id.
func (r *CandidateRepo) Get(ctx domain.Context, sessionID string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT session_id, name, email, experience, position, tech_stack, created_at, updated_at
	      FROM candidates WHERE session_id=$1`
	row := r.Pool.QueryRow(ctx, q, sessionID)
	var c domain.Candidate
	if err := row.Scan(&c.SessionID, &c.Name, &c.Email, &c.Experience, &c.Position, &c.TechStack, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w: session %s", domain.ErrNotFound, sessionID)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return c, nil
}

// Count returns the total number of stored candidates.
func (r *CandidateRepo) Count(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Count")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "COUNT"),
		attribute.String("db.sql.table", "candidates"),
	)
	row := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("op=candidate.count: %w", err)
	}
	return count, nil
}
