package sqlite

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var seedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// seedStudy creates two emails and a study placing both, with two folders.
func seedStudy(t *testing.T, db *DB) *study.Study {
	t.Helper()
	ctx := context.Background()

	emails := NewEmailRepository(db)
	for _, id := range []string{"e1", "e2"} {
		require.NoError(t, emails.Create(ctx, &email.Email{
			ID:         id,
			SenderMail: id + "@sender.example",
			Subject:    "Subject " + id,
			CreatedAt:  seedTime,
		}))
	}

	minutes := 10
	st := &study.Study{
		ID:                "s1",
		Name:              "Pilot",
		Code:              "77",
		TimerMode:         study.TimerVisible,
		ExternalImageMode: study.ExternalImagesAsk,
		DurationInMinutes: &minutes,
		CreatedAt:         seedTime,
		Folders: []study.Folder{
			{ID: "f1", StudyID: "s1", Name: "Keep", Order: 0},
			{ID: "f2", StudyID: "s1", Name: "Report", Order: 1, IsPhishing: true},
		},
		Emails: []study.StudyEmail{
			{ID: "se2", StudyID: "s1", EmailID: "e2", Order: 1, IsPhishing: true},
			{ID: "se1", StudyID: "s1", EmailID: "e1", Order: 0},
		},
	}
	require.NoError(t, NewStudyRepository(db).Create(ctx, st))
	return st
}

func seedParticipation(t *testing.T, db *DB, id, code string) *participation.Participation {
	t.Helper()
	p := &participation.Participation{ID: id, StudyID: "s1", Code: code, CreatedAt: seedTime}
	require.NoError(t, NewParticipationRepository(db).Create(context.Background(), p))
	return p
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"users",
		"emails",
		"studies",
		"folders",
		"study_emails",
		"participations",
		"participation_emails",
		"participation_email_events",
		"schema_migrations",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Re-running is a no-op
	require.NoError(t, db.RunMigrations())
}

func TestMigrations_AppliesInOrderOnce(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fsys := fstest.MapFS{
		"002_more.up.sql":     {Data: []byte(`ALTER TABLE things ADD COLUMN label TEXT;`)},
		"001_things.up.sql":   {Data: []byte(`CREATE TABLE things (id TEXT PRIMARY KEY);`)},
		"001_things.down.sql": {Data: []byte(`DROP TABLE things;`)},
	}
	require.NoError(t, db.runMigrations(fsys))
	require.NoError(t, db.runMigrations(fsys))
	require.Equal(t, 2, countRows(t, db, "schema_migrations"))
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEmailRepository(db)

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, &email.Email{ID: "e1", SenderMail: "a@b.example", Subject: "s", CreatedAt: seedTime}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countRows(t, db, "emails"))
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEmailRepository(db)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if err := db.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, &email.Email{ID: "e1", SenderMail: "a@b.example", Subject: "s", CreatedAt: seedTime})
		}); err != nil {
			return err
		}
		// Visible inside the outer transaction without deadlocking
		_, err := repo.Get(ctx, "e1")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db, "emails"))
}
