package event

import "context"

// Repository persists the append-only event log.
type Repository interface {
	Append(ctx context.Context, e *Event) error
	EmailBelongsTo(ctx context.Context, participationID, participationEmailID string) (bool, error)
	ListByParticipation(ctx context.Context, participationID string) ([]Record, error)
	ListByStudy(ctx context.Context, studyID string) ([]Record, error)
}
