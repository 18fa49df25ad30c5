package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// MessageRepo persists transcript rows. Rows are append-only; the sequence id
// assigned by the session engine orders them within a session.
type MessageRepo struct{ Pool PgxPool }

// NewMessageRepo constructs a MessageRepo with the given pool.
func NewMessageRepo(p PgxPool) *MessageRepo { return &MessageRepo{Pool: p} }

// Append stores one transcript row. Replays of an already stored sequence id
// are ignored so write-through retries stay idempotent.
func (r *MessageRepo) Append(ctx domain.Context, sessionID string, m domain.Message) error {
	tracer := otel.Tracer("repo.messages")
	ctx, span := tracer.Start(ctx, "messages.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "messages"),
	)
	q := `INSERT INTO messages (session_id, sequence_id, role, content, stage, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6)
	      ON CONFLICT (session_id, sequence_id) DO NOTHING`
	_, err := r.Pool.Exec(ctx, q, sessionID, m.SequenceID, m.Role, m.Content, m.Stage.String(), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("op=message.append: %w", err)
	}
	return nil
}

// ListBySession loads the full transcript for a session in sequence order.
func (r *MessageRepo) ListBySession(ctx domain.Context, sessionID string) ([]domain.Message, error) {
	tracer := otel.Tracer("repo.messages")
	ctx, span := tracer.Start(ctx, "messages.ListBySession")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "messages"),
	)
	q := `SELECT sequence_id, role, content, stage, created_at
	      FROM messages WHERE session_id=$1 ORDER BY sequence_id`
	rows, err := r.Pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("op=message.list: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var stage string
		if err := rows.Scan(&m.SequenceID, &m.Role, &m.Content, &stage, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=message.list: scan: %w", err)
		}
		m.Stage, _ = domain.ParseStage(stage)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=message.list: rows: %w", err)
	}
	return out, nil
}

// Count returns the total number of stored transcript rows.
func (r *MessageRepo) Count(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.messages")
	ctx, span := tracer.Start(ctx, "messages.Count")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "COUNT"),
		attribute.String("db.sql.table", "messages"),
	)
	row := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("op=message.count: %w", err)
	}
	return count, nil
}
