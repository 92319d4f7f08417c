package report

import (
	"context"

	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/study"
)

// StudyReader loads study configuration.
type StudyReader interface {
	Get(ctx context.Context, id string) (*study.Study, error)
}

// ParticipationReader loads participations and their mailboxes.
type ParticipationReader interface {
	Get(ctx context.Context, id string) (*participation.Participation, error)
	ListByStudy(ctx context.Context, studyID string) ([]participation.Participation, error)
	ListEmails(ctx context.Context, participationID string) ([]participation.ParticipationEmail, error)
}

// EventReader reads the behavioural log.
type EventReader interface {
	ListByParticipation(ctx context.Context, participationID string) ([]event.Record, error)
	ListByStudy(ctx context.Context, studyID string) ([]event.Record, error)
}
