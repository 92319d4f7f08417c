package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service records and reads behavioural telemetry.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new event service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Track appends a client-reported event to a participation's mailbox email.
// Folder moves are owned by the lifecycle engine and are rejected here.
func (s *Service) Track(ctx context.Context, participationID, participationEmailID string, p Payload) (*Event, error) {
	if p != nil && p.Type() == TypeEmailMoved {
		return nil, fmt.Errorf("%w: %s is recorded by the server", ErrInvalidInput, TypeEmailMoved)
	}
	p, err := Normalize(p)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.EmailBelongsTo(ctx, participationID, participationEmailID)
	if err != nil {
		return nil, fmt.Errorf("resolve participation email: %w", err)
	}
	if !ok {
		return nil, ErrEmailNotFound
	}

	ev := &Event{
		ParticipationEmailID: participationEmailID,
		CreatedAt:            s.now(),
		Payload:              p,
	}
	if err := s.repo.Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	s.logger.Debug("event tracked", "participation_id", participationID, "participation_email_id", participationEmailID, "type", p.Type())
	return ev, nil
}

// RecordMove appends an email-moved event. Callers run it inside the
// transaction that changed the folder.
func (s *Service) RecordMove(ctx context.Context, participationEmailID string, from *string, to string) error {
	ev := &Event{
		ParticipationEmailID: participationEmailID,
		CreatedAt:            s.now(),
		Payload:              EmailMoved{FromFolderID: from, ToFolderID: to},
	}
	if err := s.repo.Append(ctx, ev); err != nil {
		return fmt.Errorf("append move event: %w", err)
	}
	return nil
}

// ListByParticipation returns a participation's events ordered by creation
// time, ties broken by insertion order.
func (s *Service) ListByParticipation(ctx context.Context, participationID string) ([]Record, error) {
	return s.repo.ListByParticipation(ctx, participationID)
}

// ListByStudy returns every event recorded for a study's participations.
func (s *Service) ListByStudy(ctx context.Context, studyID string) ([]Record, error) {
	return s.repo.ListByStudy(ctx, studyID)
}
