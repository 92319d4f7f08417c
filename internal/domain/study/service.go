package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phishbox/internal/codegen"
	"github.com/rpggio/phishbox/internal/repository"
)

// Service handles study configuration.
type Service struct {
	repo   Repository
	tx     repository.Transactor
	codes  *codegen.Generator
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new study service.
func NewService(repo Repository, tx repository.Transactor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:   repo,
		tx:     tx,
		codes:  codegen.New(),
		now:    time.Now,
		logger: logger,
	}
}

// Settings holds the study fields an administrator edits directly.
type Settings struct {
	Name              string
	OpenParticipation bool
	ConsentRequired   bool
	ConsentText       string
	TimerMode         TimerMode
	ExternalImageMode ExternalImageMode
	DurationInMinutes *int
	StartText         string
	StartLinkTemplate *string
	EndText           string
	EndLinkTemplate   *string
}

// FolderInput describes a folder in a create or update request. An empty ID
// creates a new folder.
type FolderInput struct {
	ID         string
	Name       string
	Order      int
	IsPhishing bool
}

// StudyEmailInput describes an email placement. An empty ID creates a new one.
type StudyEmailInput struct {
	ID         string
	EmailID    string
	Order      int
	IsPhishing bool
}

// CreateRequest describes a study creation request.
type CreateRequest struct {
	Settings
	Folders []FolderInput
	Emails  []StudyEmailInput
}

// UpdateRequest replaces settings, folders and placements of a study.
type UpdateRequest struct {
	ID string
	Settings
	Folders []FolderInput
	Emails  []StudyEmailInput
}

// Create creates a study with a fresh study code.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Study, error) {
	if err := s.validate(req.Settings, req.Folders, req.Emails); err != nil {
		return nil, err
	}

	st := &Study{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
	}
	applySettings(st, req.Settings)
	for _, f := range req.Folders {
		st.Folders = append(st.Folders, Folder{
			ID:         uuid.NewString(),
			StudyID:    st.ID,
			Name:       f.Name,
			Order:      f.Order,
			IsPhishing: f.IsPhishing,
		})
	}
	for _, e := range req.Emails {
		st.Emails = append(st.Emails, StudyEmail{
			ID:         uuid.NewString(),
			StudyID:    st.ID,
			EmailID:    e.EmailID,
			Order:      e.Order,
			IsPhishing: e.IsPhishing,
		})
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		count, err := s.repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting studies: %w", err)
		}
		code, err := s.codes.Generate(ctx, count, s.repo.CodeExists)
		if err != nil {
			return fmt.Errorf("generating study code: %w", err)
		}
		st.Code = code

		if err := s.repo.Create(ctx, st); err != nil {
			if errors.Is(err, repository.ErrForeignKeyViolation) {
				return ErrEmailNotFound
			}
			return fmt.Errorf("creating study: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("study created", "study_id", st.ID, "code", st.Code)
	return st, nil
}

// Get fetches a study with its folders and placements.
func (s *Service) Get(ctx context.Context, id string) (*Study, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, fmt.Errorf("getting study: %w", err)
	}
	return st, nil
}

// GetByCode fetches a study by its study code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Study, error) {
	st, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, fmt.Errorf("getting study by code: %w", err)
	}
	return st, nil
}

// List returns study summaries ordered by name.
func (s *Service) List(ctx context.Context) ([]StudySummary, error) {
	return s.repo.List(ctx)
}

// Update applies settings and diffs folders and placements in one transaction.
// Mailboxes already materialised for participations keep their emails.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Study, error) {
	if req.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := s.validate(req.Settings, req.Folders, req.Emails); err != nil {
		return nil, err
	}

	var updated *Study
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, req.ID)
		if err != nil {
			return err
		}

		applySettings(current, req.Settings)
		if err := s.repo.Update(ctx, current); err != nil {
			return fmt.Errorf("updating study: %w", err)
		}
		if err := s.syncFolders(ctx, current, req.Folders); err != nil {
			return err
		}
		if err := s.syncEmails(ctx, current, req.Emails); err != nil {
			return err
		}

		updated, err = s.Get(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("study updated", "study_id", req.ID)
	return updated, nil
}

// Delete removes a study and everything recorded under it in one transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrStudyNotFound
			}
			return fmt.Errorf("deleting study: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("study deleted", "study_id", id)
	return nil
}

func (s *Service) validate(settings Settings, folders []FolderInput, emails []StudyEmailInput) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}
	if err := validateFolders(folders); err != nil {
		return err
	}
	return validateEmails(emails)
}

func (s *Service) syncFolders(ctx context.Context, current *Study, wanted []FolderInput) error {
	existing := make(map[string]struct{}, len(current.Folders))
	for _, f := range current.Folders {
		existing[f.ID] = struct{}{}
	}

	keep := make(map[string]struct{}, len(wanted))
	for _, in := range wanted {
		if in.ID == "" {
			continue
		}
		if _, ok := existing[in.ID]; !ok {
			return ErrUnknownFolder
		}
		keep[in.ID] = struct{}{}
	}

	for _, f := range current.Folders {
		if _, ok := keep[f.ID]; ok {
			continue
		}
		if err := s.repo.DeleteFolder(ctx, current.ID, f.ID); err != nil {
			return fmt.Errorf("deleting folder: %w", err)
		}
	}

	for _, in := range wanted {
		f := Folder{ID: in.ID, StudyID: current.ID, Name: in.Name, Order: in.Order, IsPhishing: in.IsPhishing}
		if f.ID == "" {
			f.ID = uuid.NewString()
			if err := s.repo.CreateFolder(ctx, &f); err != nil {
				return fmt.Errorf("creating folder: %w", err)
			}
			continue
		}
		if err := s.repo.UpdateFolder(ctx, &f); err != nil {
			return fmt.Errorf("updating folder: %w", err)
		}
	}
	return nil
}

func (s *Service) syncEmails(ctx context.Context, current *Study, wanted []StudyEmailInput) error {
	existing := make(map[string]struct{}, len(current.Emails))
	for _, e := range current.Emails {
		existing[e.ID] = struct{}{}
	}

	keep := make(map[string]struct{}, len(wanted))
	for _, in := range wanted {
		if in.ID == "" {
			continue
		}
		if _, ok := existing[in.ID]; !ok {
			return ErrUnknownStudyEmail
		}
		keep[in.ID] = struct{}{}
	}

	for _, e := range current.Emails {
		if _, ok := keep[e.ID]; ok {
			continue
		}
		if err := s.repo.DeleteStudyEmail(ctx, current.ID, e.ID); err != nil {
			return fmt.Errorf("deleting study email: %w", err)
		}
	}

	for _, in := range wanted {
		se := StudyEmail{ID: in.ID, StudyID: current.ID, EmailID: in.EmailID, Order: in.Order, IsPhishing: in.IsPhishing}
		var err error
		if se.ID == "" {
			se.ID = uuid.NewString()
			err = s.repo.CreateStudyEmail(ctx, &se)
		} else {
			err = s.repo.UpdateStudyEmail(ctx, &se)
		}
		if err != nil {
			if errors.Is(err, repository.ErrForeignKeyViolation) {
				return ErrEmailNotFound
			}
			return fmt.Errorf("saving study email: %w", err)
		}
	}
	return nil
}

func applySettings(st *Study, in Settings) {
	st.Name = in.Name
	st.OpenParticipation = in.OpenParticipation
	st.ConsentRequired = in.ConsentRequired
	st.ConsentText = in.ConsentText
	st.TimerMode = in.TimerMode
	st.ExternalImageMode = in.ExternalImageMode
	st.DurationInMinutes = in.DurationInMinutes
	if in.TimerMode == TimerDisabled {
		st.DurationInMinutes = nil
	}
	st.StartText = in.StartText
	st.StartLinkTemplate = in.StartLinkTemplate
	st.EndText = in.EndText
	st.EndLinkTemplate = in.EndLinkTemplate
}
