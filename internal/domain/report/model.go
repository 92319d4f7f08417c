package report

import (
	"time"

	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
)

// StudyReport flattens every participation of a study for export.
type StudyReport struct {
	StudyID        string                `json:"study_id"`
	StudyName      string                `json:"study_name"`
	GeneratedAt    time.Time             `json:"generated_at"`
	Participations []ParticipationReport `json:"participations"`
}

// ParticipationReport is one participation with its sorting outcome and
// behavioural log.
type ParticipationReport struct {
	Participation participation.Participation `json:"participation"`
	Status        participation.Status        `json:"status"`
	Completed     bool                        `json:"completed"`
	Sorted        int                         `json:"sorted"`
	Correct       int                         `json:"correct"`
	Emails        []EmailOutcome              `json:"emails"`
	Events        []event.Record              `json:"events"`
}

// EmailOutcome tells where a participant filed one email and whether that
// matched the email's phishing classification.
type EmailOutcome struct {
	ParticipationEmailID string  `json:"participation_email_id"`
	EmailID              string  `json:"email_id"`
	BackofficeIdentifier string  `json:"backoffice_identifier,omitempty"`
	IsPhishing           bool    `json:"is_phishing"`
	FolderID             *string `json:"folder_id,omitempty"`
	FolderName           string  `json:"folder_name,omitempty"`
	Correct              *bool   `json:"correct,omitempty"`
}
