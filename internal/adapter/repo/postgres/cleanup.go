package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CleanupService removes interview data past the retention window.
type CleanupService struct {
	Pool          PgxPool
	RetentionDays int
}

// NewCleanupService creates a cleanup service.
func NewCleanupService(pool PgxPool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays}
}

// CleanupOldData removes candidates and transcripts older than the retention
// period. Messages go first so a failure between the two deletes cannot leave
// transcripts without their candidate row's retention anchor.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.RetentionDays)

	msgTag, err := s.Pool.Exec(ctx, `
		DELETE FROM messages
		WHERE session_id IN (SELECT session_id FROM candidates WHERE created_at < $1)
	`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.messages: %w", err)
	}

	candTag, err := s.Pool.Exec(ctx, `DELETE FROM candidates WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.candidates: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_messages", msgTag.RowsAffected()),
		slog.Int64("deleted_candidates", candTag.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// RunPeriodic runs cleanup once immediately and then on the interval until
// the context is cancelled.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
