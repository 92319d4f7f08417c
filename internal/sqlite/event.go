package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/event"
)

// EventRepository implements event.Repository for SQLite
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append inserts one event and assigns its ID
func (r *EventRepository) Append(ctx context.Context, e *event.Event) error {
	data, err := event.Marshal(e.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO participation_email_events (participation_email_id, created_at, type, data)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		e.ParticipationEmailID,
		utc(e.CreatedAt),
		string(e.Payload.Type()),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", mapWriteError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event id: %w", err)
	}
	e.ID = id
	return nil
}

// EmailBelongsTo reports whether the mailbox email is part of the participation
func (r *EventRepository) EmailBelongsTo(ctx context.Context, participationID, participationEmailID string) (bool, error) {
	var n int
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participation_emails WHERE id = ? AND participation_id = ?`,
		participationEmailID, participationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to resolve participation email: %w", err)
	}
	return n > 0, nil
}

const eventSelect = `
	SELECT ev.id, ev.participation_email_id, ev.created_at, ev.data, pe.participation_id, pe.email_id
	FROM participation_email_events ev
	JOIN participation_emails pe ON pe.id = ev.participation_email_id
`

// ListByParticipation returns a participation's events, oldest first
func (r *EventRepository) ListByParticipation(ctx context.Context, participationID string) ([]event.Record, error) {
	return r.list(ctx, eventSelect+` WHERE pe.participation_id = ? ORDER BY ev.created_at, ev.id`, participationID)
}

// ListByStudy returns every event of a study's participations, oldest first
func (r *EventRepository) ListByStudy(ctx context.Context, studyID string) ([]event.Record, error) {
	query := eventSelect + `
		JOIN participations p ON p.id = pe.participation_id
		WHERE p.study_id = ?
		ORDER BY ev.created_at, ev.id
	`
	return r.list(ctx, query, studyID)
}

func (r *EventRepository) list(ctx context.Context, query string, arg string) ([]event.Record, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	records := []event.Record{}
	for rows.Next() {
		var (
			rec  event.Record
			data string
		)
		if err := rows.Scan(
			&rec.Event.ID,
			&rec.Event.ParticipationEmailID,
			&rec.Event.CreatedAt,
			&data,
			&rec.ParticipationID,
			&rec.EmailID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if rec.Event.Payload, err = event.Unmarshal([]byte(data)); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", rec.Event.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return records, nil
}
