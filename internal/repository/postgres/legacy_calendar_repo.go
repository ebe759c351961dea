// Package postgres holds the repository over the legacy SQL calendar kept
// alive during the DynamoDB migration.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"clubcalendar/internal/domain"
)

type legacyCalendarRepository struct {
	DB *sql.DB
}

// NewLegacyCalendarRepository creates a read-only repository over the legacy
// calendar table.
func NewLegacyCalendarRepository(db *sql.DB) domain.LegacyCalendarRepository {
	return &legacyCalendarRepository{
		DB: db,
	}
}

func (r *legacyCalendarRepository) ListEntries(ctx context.Context) ([]domain.LegacyCalendarEntry, error) {
	query := `
		SELECT id, title, start_time, end_time
		FROM calendar_events
		ORDER BY start_time
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query legacy calendar: %w", err)
	}
	defer rows.Close()

	var entries []domain.LegacyCalendarEntry
	for rows.Next() {
		var e domain.LegacyCalendarEntry
		var endNull sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.Start, &endNull); err != nil {
			return nil, err
		}
		if endNull.Valid {
			e.End = endNull.String
		} else {
			e.End = e.Start
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
