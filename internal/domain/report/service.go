package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/repository"
)

// Service builds export read models.
type Service struct {
	studies        StudyReader
	participations ParticipationReader
	events         EventReader
	now            func() time.Time
	logger         *slog.Logger
}

// NewService creates a new report service.
func NewService(studies StudyReader, participations ParticipationReader, events EventReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		studies:        studies,
		participations: participations,
		events:         events,
		now:            time.Now,
		logger:         logger,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Study reports every participation of a study.
func (s *Service) Study(ctx context.Context, studyID string) (*StudyReport, error) {
	st, err := s.loadStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	list, err := s.participations.ListByStudy(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	records, err := s.events.ListByStudy(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	byParticipation := make(map[string][]event.Record)
	for _, r := range records {
		byParticipation[r.ParticipationID] = append(byParticipation[r.ParticipationID], r)
	}

	now := s.now()
	out := &StudyReport{
		StudyID:        st.ID,
		StudyName:      st.Name,
		GeneratedAt:    now,
		Participations: make([]ParticipationReport, 0, len(list)),
	}
	for i := range list {
		pr, err := s.build(ctx, st, &list[i], byParticipation[list[i].ID], now)
		if err != nil {
			return nil, err
		}
		out.Participations = append(out.Participations, *pr)
	}

	s.logger.Debug("study report built", "study_id", studyID, "participations", len(list), "events", len(records))
	return out, nil
}

// Participation reports a single participation.
func (s *Service) Participation(ctx context.Context, participationID string) (*ParticipationReport, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	st, err := s.loadStudy(ctx, p.StudyID)
	if err != nil {
		return nil, err
	}
	records, err := s.events.ListByParticipation(ctx, participationID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.build(ctx, st, p, records, s.now())
}

// Events returns the raw event stream of a participation.
func (s *Service) Events(ctx context.Context, participationID string) ([]event.Record, error) {
	if _, err := s.participations.Get(ctx, participationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	return s.events.ListByParticipation(ctx, participationID)
}

func (s *Service) build(ctx context.Context, st *study.Study, p *participation.Participation, records []event.Record, now time.Time) (*ParticipationReport, error) {
	emails, err := s.participations.ListEmails(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list participation emails: %w", err)
	}

	folders := make(map[string]study.Folder, len(st.Folders))
	for _, f := range st.Folders {
		folders[f.ID] = f
	}
	phishing := make(map[string]bool, len(st.Emails))
	for _, se := range st.Emails {
		phishing[se.EmailID] = se.IsPhishing
	}

	pr := &ParticipationReport{
		Participation: *p,
		Status:        participation.DeriveStatus(p, st, now),
		Completed:     participation.IsCompleted(p, st, now),
		Emails:        make([]EmailOutcome, 0, len(emails)),
		Events:        records,
	}
	if pr.Events == nil {
		pr.Events = []event.Record{}
	}

	for _, pe := range emails {
		o := EmailOutcome{
			ParticipationEmailID: pe.ID,
			EmailID:              pe.EmailID,
			IsPhishing:           phishing[pe.EmailID],
			FolderID:             pe.FolderID,
		}
		if pe.Email != nil {
			o.BackofficeIdentifier = pe.Email.BackofficeIdentifier
		}
		if pe.FolderID != nil {
			pr.Sorted++
			if f, ok := folders[*pe.FolderID]; ok {
				correct := f.IsPhishing == o.IsPhishing
				o.FolderName = f.Name
				o.Correct = &correct
				if correct {
					pr.Correct++
				}
			}
		}
		pr.Emails = append(pr.Emails, o)
	}
	return pr, nil
}

func (s *Service) loadStudy(ctx context.Context, id string) (*study.Study, error) {
	st, err := s.studies.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, fmt.Errorf("get study: %w", err)
	}
	return st, nil
}
