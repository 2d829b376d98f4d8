package db

import (
	"context"
	"fmt"

	"github.com/vevocube/mona-voice/internal/models"
)

func (db *DB) InsertSynthesisEvent(ctx context.Context, event *models.SynthesisEvent) error {
	query := `
		INSERT INTO synthesis_events (
			fingerprint, requested_backend, used_backend, cache_hit, elapsed_seconds, text_length
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		event.Fingerprint, event.Requested, event.Used,
		event.CacheHit, event.ElapsedSeconds, event.TextLength,
	).Scan(&event.CreatedAt)
}

// RecentSynthesisEvents returns the newest events, capped at limit.
func (db *DB) RecentSynthesisEvents(ctx context.Context, limit int) ([]models.SynthesisEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT fingerprint, requested_backend, used_backend, cache_hit, elapsed_seconds, text_length, created_at
		FROM synthesis_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query synthesis events: %w", err)
	}
	defer rows.Close()

	var events []models.SynthesisEvent
	for rows.Next() {
		var e models.SynthesisEvent
		err := rows.Scan(
			&e.Fingerprint, &e.Requested, &e.Used,
			&e.CacheHit, &e.ElapsedSeconds, &e.TextLength, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan synthesis event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}
