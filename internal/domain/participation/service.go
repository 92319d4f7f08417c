package participation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phishbox/internal/codegen"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/repository"
)

// MaxProvision caps how many participations one provisioning call creates.
const MaxProvision = 1000

// Service runs the participation lifecycle.
type Service struct {
	repo    Repository
	studies StudyReader
	moves   MoveRecorder
	tx      repository.Transactor
	codes   *codegen.Generator
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a new participation service.
func NewService(repo Repository, studies StudyReader, moves MoveRecorder, tx repository.Transactor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:    repo,
		studies: studies,
		moves:   moves,
		tx:      tx,
		codes:   codegen.New(),
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithCodes replaces the participant code generator.
func (s *Service) WithCodes(g *codegen.Generator) *Service {
	s.codes = g
	return s
}

// Summary is a participation with its derived status, for admin listings.
type Summary struct {
	Participation
	Status Status `json:"status"`
}

// Create opens a new participation for a study that allows self-service
// entry. The returned participation's code still has to be redeemed.
func (s *Service) Create(ctx context.Context, studyCode string) (*Participation, error) {
	st, err := s.studies.GetByCode(ctx, studyCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, fmt.Errorf("get study: %w", err)
	}
	if !st.OpenParticipation {
		return nil, ErrStudyClosed
	}

	var created []Participation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err = s.createBatch(ctx, st.ID, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	p := &created[0]
	s.logger.Info("participation created", "participation_id", p.ID, "study_id", st.ID)
	return p, nil
}

// Provision pre-creates count participations with fresh codes for a study.
func (s *Service) Provision(ctx context.Context, studyID string, count int) ([]Participation, error) {
	if count < 1 || count > MaxProvision {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, MaxProvision)
	}

	var created []Participation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadStudy(ctx, studyID); err != nil {
			return err
		}
		var err error
		created, err = s.createBatch(ctx, studyID, count)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("participations provisioned", "study_id", studyID, "count", count)
	return created, nil
}

func (s *Service) createBatch(ctx context.Context, studyID string, n int) ([]Participation, error) {
	population, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count participations: %w", err)
	}
	codes, err := s.codes.GenerateBatch(ctx, population, n, s.repo.CodeExists)
	if err != nil {
		return nil, fmt.Errorf("generate codes: %w", err)
	}

	now := s.now()
	out := make([]Participation, 0, n)
	for _, code := range codes {
		p := Participation{
			ID:        uuid.New().String(),
			StudyID:   studyID,
			Code:      code,
			CreatedAt: now,
		}
		if err := s.repo.Create(ctx, &p); err != nil {
			return nil, fmt.Errorf("create participation: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ListInStudy returns every participation of a study with its status.
func (s *Service) ListInStudy(ctx context.Context, studyID string) ([]Summary, error) {
	st, err := s.loadStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByStudy(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}

	now := s.now()
	out := make([]Summary, 0, len(list))
	for i := range list {
		out = append(out, Summary{Participation: list[i], Status: DeriveStatus(&list[i], st, now)})
	}
	return out, nil
}

// ResolveByCode looks a participation up by its participant code. The first
// resolution redeems the code and fills the mailbox from the study's current
// email placements; later resolutions only read.
func (s *Service) ResolveByCode(ctx context.Context, code string) (*View, error) {
	var view *View
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.loadByCode(ctx, code)
		if err != nil {
			return err
		}

		if p.CodeUsedAt == nil {
			won, err := s.repo.SetTimestamp(ctx, p.ID, MilestoneCodeUsed, s.now())
			if err != nil {
				return fmt.Errorf("redeem code: %w", err)
			}
			if won {
				if err := s.repo.MaterializeEmails(ctx, p.ID, p.StudyID); err != nil {
					return fmt.Errorf("materialize emails: %w", err)
				}
				s.logger.Info("participation code redeemed", "participation_id", p.ID, "study_id", p.StudyID)
			}
			if p, err = s.load(ctx, p.ID); err != nil {
				return err
			}
		}

		view, err = s.view(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns the full participant view for a code without redeeming it.
func (s *Service) Get(ctx context.Context, code string) (*View, error) {
	p, err := s.loadByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// GetByID returns a participation by id.
func (s *Service) GetByID(ctx context.Context, id string) (*Participation, error) {
	return s.load(ctx, id)
}

// GiveConsent records consent. Repeated consent is a no-op.
func (s *Service) GiveConsent(ctx context.Context, id string) (*Participation, error) {
	return s.transition(ctx, id, MilestoneConsentGiven, consentGuard)
}

// Start begins the sorting task.
func (s *Service) Start(ctx context.Context, id string) (*Participation, error) {
	return s.transition(ctx, id, MilestoneStarted, startGuard)
}

// Finish ends the sorting task once every email is sorted or the timer ran
// out. Finishing twice is a no-op.
func (s *Service) Finish(ctx context.Context, id string) (*Participation, error) {
	return s.transition(ctx, id, MilestoneFinished, finishGuard(s.repo.CountUnsorted))
}

// ClickStartLink records the first click on the study's start link.
func (s *Service) ClickStartLink(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, MilestoneStartLinkClicked, startLinkGuard)
	return err
}

// ClickEndLink records the first click on the study's end link. Clicks before
// the participation finished are ignored.
func (s *Service) ClickEndLink(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, MilestoneEndLinkClicked, endLinkGuard)
	return err
}

// MoveEmail files a mailbox email into a folder and logs the move when the
// folder actually changes.
func (s *Service) MoveEmail(ctx context.Context, participationID, emailID, folderID string) (*ParticipationEmail, error) {
	var moved *ParticipationEmail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, participationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: participation not found", ErrInvalidState)
			}
			return fmt.Errorf("get participation: %w", err)
		}
		if err := CanMove(p); err != nil {
			return err
		}

		pe, err := s.repo.GetEmail(ctx, participationID, emailID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEmailNotFound
			}
			return fmt.Errorf("get participation email: %w", err)
		}

		st, err := s.loadStudy(ctx, p.StudyID)
		if err != nil {
			return err
		}
		if !st.HasFolder(folderID) {
			return ErrFolderNotFound
		}

		if pe.FolderID != nil && *pe.FolderID == folderID {
			moved = pe
			return nil
		}

		from := pe.FolderID
		if err := s.repo.SetEmailFolder(ctx, pe.ID, folderID); err != nil {
			return fmt.Errorf("move email: %w", err)
		}
		if err := s.moves.RecordMove(ctx, pe.ID, from, folderID); err != nil {
			return err
		}
		pe.FolderID = &folderID
		moved = pe
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Status derives the status of a participation right now.
func (s *Service) Status(p *Participation, st *study.Study) Status {
	return DeriveStatus(p, st, s.now())
}

// transition records milestone m if the guard allows it. A lost race is
// settled by re-running the guard against the winner's state.
func (s *Service) transition(ctx context.Context, id string, m Milestone, g guard) (*Participation, error) {
	var out *Participation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		st, err := s.loadStudy(ctx, p.StudyID)
		if err != nil {
			return err
		}

		now := s.now()
		apply, err := g(ctx, p, st, now)
		if err != nil || !apply {
			out = p
			return err
		}

		won, err := s.repo.SetTimestamp(ctx, id, m, now)
		if err != nil {
			return fmt.Errorf("set %s: %w", m, err)
		}
		if !won {
			if p, err = s.load(ctx, id); err != nil {
				return err
			}
			if _, err := g(ctx, p, st, now); err != nil {
				return err
			}
			out = p
			return nil
		}

		p.set(m, now)
		out = p
		s.logger.Info("participation transition", "participation_id", id, "milestone", string(m))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, p *Participation) (*View, error) {
	st, err := s.loadStudy(ctx, p.StudyID)
	if err != nil {
		return nil, err
	}
	emails, err := s.repo.ListEmails(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list participation emails: %w", err)
	}

	now := s.now()
	v := &View{
		Participation: *p,
		Study:         newStudyView(st),
		Emails:        emails,
		Status:        DeriveStatus(p, st, now),
		Completed:     IsCompleted(p, st, now),
		StartLink:     st.StartLink(p.Code),
		EndLink:       st.EndLink(p.Code),
	}
	if deadline, ok := Deadline(p, st); ok {
		v.Deadline = &deadline
	}
	return v, nil
}

func (s *Service) load(ctx context.Context, id string) (*Participation, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	return p, nil
}

func (s *Service) loadByCode(ctx context.Context, code string) (*Participation, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participation by code: %w", err)
	}
	return p, nil
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
