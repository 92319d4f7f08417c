package participation

import (
	"context"
	"time"

	"github.com/rpggio/phishbox/internal/domain/study"
)

// Repository provides persistence for participations and their mailboxes.
type Repository interface {
	Create(ctx context.Context, p *Participation) error
	Get(ctx context.Context, id string) (*Participation, error)
	GetByCode(ctx context.Context, code string) (*Participation, error)
	ListByStudy(ctx context.Context, studyID string) ([]Participation, error)
	Count(ctx context.Context) (int, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// SetTimestamp records a milestone only if it is still unset and reports
	// whether this call was the one that set it.
	SetTimestamp(ctx context.Context, id string, m Milestone, at time.Time) (bool, error)

	// MaterializeEmails copies the study's current email placements into the
	// participation's mailbox. Existing (participation, email) pairs are kept.
	MaterializeEmails(ctx context.Context, participationID, studyID string) error
	ListEmails(ctx context.Context, participationID string) ([]ParticipationEmail, error)
	GetEmail(ctx context.Context, participationID, emailID string) (*ParticipationEmail, error)
	SetEmailFolder(ctx context.Context, participationEmailID, folderID string) error
	CountUnsorted(ctx context.Context, participationID string) (int, error)
}

// StudyReader loads the study a participation runs against.
type StudyReader interface {
	Get(ctx context.Context, id string) (*study.Study, error)
	GetByCode(ctx context.Context, code string) (*study.Study, error)
}

// MoveRecorder appends the email-moved event for a folder change.
type MoveRecorder interface {
	RecordMove(ctx context.Context, participationEmailID string, from *string, to string) error
}
