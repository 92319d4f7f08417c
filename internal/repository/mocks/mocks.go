package mocks

import (
	"context"
	"time"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// Transactor runs fn directly with the caller's ctx so expectations set on
// that ctx still match inside the transaction.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

// StudyRepository is a mock for study.Repository.
type StudyRepository struct {
	mock.Mock
}

func (m *StudyRepository) Create(ctx context.Context, st *study.Study) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *StudyRepository) Get(ctx context.Context, id string) (*study.Study, error) {
	args := m.Called(ctx, id)
	if st, ok := args.Get(0).(*study.Study); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudyRepository) GetByCode(ctx context.Context, code string) (*study.Study, error) {
	args := m.Called(ctx, code)
	if st, ok := args.Get(0).(*study.Study); ok {
		return st, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudyRepository) List(ctx context.Context) ([]study.StudySummary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]study.StudySummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudyRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *StudyRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *StudyRepository) Update(ctx context.Context, st *study.Study) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *StudyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StudyRepository) CreateFolder(ctx context.Context, f *study.Folder) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *StudyRepository) UpdateFolder(ctx context.Context, f *study.Folder) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *StudyRepository) DeleteFolder(ctx context.Context, studyID, id string) error {
	args := m.Called(ctx, studyID, id)
	return args.Error(0)
}

func (m *StudyRepository) CreateStudyEmail(ctx context.Context, se *study.StudyEmail) error {
	args := m.Called(ctx, se)
	return args.Error(0)
}

func (m *StudyRepository) UpdateStudyEmail(ctx context.Context, se *study.StudyEmail) error {
	args := m.Called(ctx, se)
	return args.Error(0)
}

func (m *StudyRepository) DeleteStudyEmail(ctx context.Context, studyID, id string) error {
	args := m.Called(ctx, studyID, id)
	return args.Error(0)
}

// EmailRepository is a mock for email.Repository.
type EmailRepository struct {
	mock.Mock
}

func (m *EmailRepository) Create(ctx context.Context, e *email.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *EmailRepository) Get(ctx context.Context, id string) (*email.Email, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*email.Email); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EmailRepository) List(ctx context.Context) ([]email.Email, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]email.Email); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EmailRepository) Update(ctx context.Context, e *email.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *EmailRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ParticipationRepository is a mock for participation.Repository.
type ParticipationRepository struct {
	mock.Mock
}

func (m *ParticipationRepository) Create(ctx context.Context, p *participation.Participation) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ParticipationRepository) Get(ctx context.Context, id string) (*participation.Participation, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*participation.Participation); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipationRepository) GetByCode(ctx context.Context, code string) (*participation.Participation, error) {
	args := m.Called(ctx, code)
	if p, ok := args.Get(0).(*participation.Participation); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipationRepository) ListByStudy(ctx context.Context, studyID string) ([]participation.Participation, error) {
	args := m.Called(ctx, studyID)
	if list, ok := args.Get(0).([]participation.Participation); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipationRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *ParticipationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipationRepository) SetTimestamp(ctx context.Context, id string, ms participation.Milestone, at time.Time) (bool, error) {
	args := m.Called(ctx, id, ms, at)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipationRepository) MaterializeEmails(ctx context.Context, participationID, studyID string) error {
	args := m.Called(ctx, participationID, studyID)
	return args.Error(0)
}

func (m *ParticipationRepository) ListEmails(ctx context.Context, participationID string) ([]participation.ParticipationEmail, error) {
	args := m.Called(ctx, participationID)
	if list, ok := args.Get(0).([]participation.ParticipationEmail); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipationRepository) GetEmail(ctx context.Context, participationID, emailID string) (*participation.ParticipationEmail, error) {
	args := m.Called(ctx, participationID, emailID)
	if pe, ok := args.Get(0).(*participation.ParticipationEmail); ok {
		return pe, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipationRepository) SetEmailFolder(ctx context.Context, participationEmailID, folderID string) error {
	args := m.Called(ctx, participationEmailID, folderID)
	return args.Error(0)
}

func (m *ParticipationRepository) CountUnsorted(ctx context.Context, participationID string) (int, error) {
	args := m.Called(ctx, participationID)
	return args.Int(0), args.Error(1)
}

// EventRepository is a mock for event.Repository.
type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) Append(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *EventRepository) EmailBelongsTo(ctx context.Context, participationID, participationEmailID string) (bool, error) {
	args := m.Called(ctx, participationID, participationEmailID)
	return args.Bool(0), args.Error(1)
}

func (m *EventRepository) ListByParticipation(ctx context.Context, participationID string) ([]event.Record, error) {
	args := m.Called(ctx, participationID)
	if list, ok := args.Get(0).([]event.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EventRepository) ListByStudy(ctx context.Context, studyID string) ([]event.Record, error) {
	args := m.Called(ctx, studyID)
	if list, ok := args.Get(0).([]event.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MoveRecorder is a mock for participation.MoveRecorder.
type MoveRecorder struct {
	mock.Mock
}

func (m *MoveRecorder) RecordMove(ctx context.Context, participationEmailID string, from *string, to string) error {
	args := m.Called(ctx, participationEmailID, from, to)
	return args.Error(0)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, addr string) (*user.User, error) {
	args := m.Called(ctx, addr)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
