package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestParticipationRepository_SetTimestampOnlyOnce(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	repo := NewParticipationRepository(db)

	first := seedTime.Add(time.Minute)
	won, err := repo.SetTimestamp(ctx, "p1", participation.MilestoneCodeUsed, first)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.SetTimestamp(ctx, "p1", participation.MilestoneCodeUsed, first.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, won)

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p.CodeUsedAt)
	require.True(t, first.Equal(*p.CodeUsedAt), "first write is kept")
	require.Nil(t, p.StartedAt)

	_, err = repo.SetTimestamp(ctx, "missing", participation.MilestoneStarted, first)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.SetTimestamp(ctx, "p1", participation.Milestone("code; DROP TABLE participations"), first)
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestParticipationRepository_CodeUniqueness(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	repo := NewParticipationRepository(db)

	err := repo.Create(ctx, &participation.Participation{ID: "p2", StudyID: "s1", Code: "11", CreatedAt: seedTime})
	require.ErrorIs(t, err, repository.ErrUniqueViolation)

	exists, err := repo.CodeExists(ctx, "11")
	require.NoError(t, err)
	require.True(t, exists)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	p, err := repo.GetByCode(ctx, "11")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)

	_, err = repo.GetByCode(ctx, "99")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestParticipationRepository_MaterializeEmailsIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	repo := NewParticipationRepository(db)

	require.NoError(t, repo.MaterializeEmails(ctx, "p1", "s1"))
	require.NoError(t, repo.MaterializeEmails(ctx, "p1", "s1"))

	emails, err := repo.ListEmails(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, emails, 2)
	require.Equal(t, "e1", emails[0].EmailID)
	require.Equal(t, "e2", emails[1].EmailID)
	require.Equal(t, "Subject e1", emails[0].Email.Subject)
	for _, pe := range emails {
		require.Nil(t, pe.FolderID)
	}

	unsorted, err := repo.CountUnsorted(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 2, unsorted)

	require.NoError(t, repo.SetEmailFolder(ctx, emails[0].ID, "f1"))
	unsorted, err = repo.CountUnsorted(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, unsorted)
}

func TestParticipationRepository_SetEmailFolderRejectsUnknownFolder(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	repo := NewParticipationRepository(db)
	require.NoError(t, repo.MaterializeEmails(ctx, "p1", "s1"))

	pe, err := repo.GetEmail(ctx, "p1", "e1")
	require.NoError(t, err)

	err = repo.SetEmailFolder(ctx, pe.ID, "no-such-folder")
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	err = repo.SetEmailFolder(ctx, "no-such-row", "f1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetEmail(ctx, "p1", "e-unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func newParticipationService(db *DB, now time.Time) *participation.Service {
	events := event.NewService(NewEventRepository(db), nil).WithClock(func() time.Time { return now })
	return participation.NewService(
		NewParticipationRepository(db),
		NewStudyRepository(db),
		events,
		db,
		nil,
	).WithClock(func() time.Time { return now })
}

func TestParticipationService_ConcurrentRedeemMaterializesOnce(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	svc := newParticipationService(db, seedTime.Add(time.Minute))

	const callers = 4
	var wg sync.WaitGroup
	views := make([]*participation.View, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			views[i], errs[i] = svc.ResolveByCode(ctx, "11")
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Len(t, views[i].Emails, 2)
		require.Equal(t, participation.StatusCodeUsed, views[i].Status)
	}
	require.Equal(t, 2, countRows(t, db, "participation_emails"))
}

func TestParticipationService_MoveEmailWritesOneEvent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedStudy(t, db)
	seedParticipation(t, db, "p1", "11")
	svc := newParticipationService(db, seedTime.Add(time.Minute))

	_, err := svc.ResolveByCode(ctx, "11")
	require.NoError(t, err)
	_, err = svc.Start(ctx, "p1")
	require.NoError(t, err)

	_, err = svc.MoveEmail(ctx, "p1", "e1", "f2")
	require.NoError(t, err)
	_, err = svc.MoveEmail(ctx, "p1", "e1", "f2")
	require.NoError(t, err)
	_, err = svc.MoveEmail(ctx, "p1", "e1", "f1")
	require.NoError(t, err)

	records, err := NewEventRepository(db).ListByParticipation(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first, ok := records[0].Event.Payload.(event.EmailMoved)
	require.True(t, ok)
	require.Nil(t, first.FromFolderID)
	require.Equal(t, "f2", first.ToFolderID)

	second, ok := records[1].Event.Payload.(event.EmailMoved)
	require.True(t, ok)
	require.NotNil(t, second.FromFolderID)
	require.Equal(t, "f2", *second.FromFolderID)
	require.Equal(t, "f1", second.ToFolderID)
}
