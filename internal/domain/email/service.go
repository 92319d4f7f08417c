package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phishbox/internal/repository"
)

// Service handles email template operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new email service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Input carries the editable email fields.
type Input struct {
	SenderMail           string
	SenderName           string
	Subject              string
	Headers              string
	Body                 string
	AllowExternalImages  bool
	BackofficeIdentifier string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.SenderMail) == "" || strings.TrimSpace(in.Subject) == "" {
		return ErrInvalidInput
	}
	return nil
}

// Create stores a new email template.
func (s *Service) Create(ctx context.Context, in Input) (*Email, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	e := &Email{ID: uuid.NewString(), CreatedAt: time.Now()}
	in.apply(e)
	if e.BackofficeIdentifier == "" {
		e.BackofficeIdentifier = fmt.Sprintf("%s / %s", e.Subject, e.SenderName)
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("creating email: %w", err)
	}
	return e, nil
}

// Get fetches an email by ID.
func (s *Service) Get(ctx context.Context, id string) (*Email, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("getting email: %w", err)
	}
	return e, nil
}

// List returns all email templates.
func (s *Service) List(ctx context.Context) ([]Email, error) {
	return s.repo.List(ctx)
}

// Update replaces the editable fields of an email.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Email, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(e)

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("updating email: %w", err)
	}
	return e, nil
}

// Delete removes an email unless a study or mailbox still references it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrEmailNotFound
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return ErrEmailInUse
		}
		return fmt.Errorf("deleting email: %w", err)
	}
	s.logger.Info("email deleted", "email_id", id)
	return nil
}

func (in Input) apply(e *Email) {
	e.SenderMail = in.SenderMail
	e.SenderName = in.SenderName
	e.Subject = in.Subject
	e.Headers = in.Headers
	e.Body = in.Body
	e.AllowExternalImages = in.AllowExternalImages
	if in.BackofficeIdentifier != "" {
		e.BackofficeIdentifier = in.BackofficeIdentifier
	}
}
