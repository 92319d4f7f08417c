package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/repository"
)

// StudyRepository implements study.Repository for SQLite
type StudyRepository struct {
	db *DB
}

// NewStudyRepository creates a new StudyRepository
func NewStudyRepository(db *DB) *StudyRepository {
	return &StudyRepository{db: db}
}

const studyColumns = `id, name, code, open_participation, consent_required, consent_text, timer_mode,
	external_image_mode, duration_in_minutes, start_text, start_link_template, end_text, end_link_template, created_at`

// Create inserts a study together with its folders and email placements
func (r *StudyRepository) Create(ctx context.Context, st *study.Study) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO studies (` + studyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := r.db.conn(ctx).ExecContext(ctx, query,
			st.ID,
			st.Name,
			st.Code,
			st.OpenParticipation,
			st.ConsentRequired,
			st.ConsentText,
			string(st.TimerMode),
			string(st.ExternalImageMode),
			nullInt(st.DurationInMinutes),
			st.StartText,
			nullString(st.StartLinkTemplate),
			st.EndText,
			nullString(st.EndLinkTemplate),
			utc(st.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to create study: %w", mapWriteError(err))
		}

		for i := range st.Folders {
			if err := r.CreateFolder(ctx, &st.Folders[i]); err != nil {
				return err
			}
		}
		for i := range st.Emails {
			if err := r.CreateStudyEmail(ctx, &st.Emails[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a study by ID with its folders and placements
func (r *StudyRepository) Get(ctx context.Context, id string) (*study.Study, error) {
	return r.getBy(ctx, "id", id)
}

// GetByCode retrieves a study by its study code
func (r *StudyRepository) GetByCode(ctx context.Context, code string) (*study.Study, error) {
	return r.getBy(ctx, "code", code)
}

func (r *StudyRepository) getBy(ctx context.Context, column, value string) (*study.Study, error) {
	q := r.db.conn(ctx)
	query := `SELECT ` + studyColumns + ` FROM studies WHERE ` + column + ` = ?`

	var (
		st        study.Study
		timerMode string
		imageMode string
		duration  sql.NullInt64
		startLink sql.NullString
		endLink   sql.NullString
	)
	err := q.QueryRowContext(ctx, query, value).Scan(
		&st.ID,
		&st.Name,
		&st.Code,
		&st.OpenParticipation,
		&st.ConsentRequired,
		&st.ConsentText,
		&timerMode,
		&imageMode,
		&duration,
		&st.StartText,
		&startLink,
		&st.EndText,
		&endLink,
		&st.CreatedAt,
	)
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study: %w", err)
	}
	st.TimerMode = study.TimerMode(timerMode)
	st.ExternalImageMode = study.ExternalImageMode(imageMode)
	st.DurationInMinutes = intPtr(duration)
	st.StartLinkTemplate = stringPtr(startLink)
	st.EndLinkTemplate = stringPtr(endLink)

	if st.Folders, err = r.listFolders(ctx, st.ID); err != nil {
		return nil, err
	}
	if st.Emails, err = r.listStudyEmails(ctx, st.ID); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *StudyRepository) listFolders(ctx context.Context, studyID string) ([]study.Folder, error) {
	query := `
		SELECT id, study_id, name, sort_order, is_phishing
		FROM folders
		WHERE study_id = ?
		ORDER BY sort_order, rowid
	`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	folders := []study.Folder{}
	for rows.Next() {
		var f study.Folder
		if err := rows.Scan(&f.ID, &f.StudyID, &f.Name, &f.Order, &f.IsPhishing); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder rows: %w", err)
	}
	return folders, nil
}

func (r *StudyRepository) listStudyEmails(ctx context.Context, studyID string) ([]study.StudyEmail, error) {
	query := `
		SELECT id, study_id, email_id, sort_order, is_phishing
		FROM study_emails
		WHERE study_id = ?
		ORDER BY sort_order, rowid
	`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list study emails: %w", err)
	}
	defer rows.Close()

	emails := []study.StudyEmail{}
	for rows.Next() {
		var se study.StudyEmail
		if err := rows.Scan(&se.ID, &se.StudyID, &se.EmailID, &se.Order, &se.IsPhishing); err != nil {
			return nil, fmt.Errorf("failed to scan study email: %w", err)
		}
		emails = append(emails, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study email rows: %w", err)
	}
	return emails, nil
}

// List returns all studies with participation counts
func (r *StudyRepository) List(ctx context.Context) ([]study.StudySummary, error) {
	query := `
		SELECT
			s.id,
			s.name,
			s.code,
			s.open_participation,
			s.created_at,
			COUNT(p.id) AS participation_count
		FROM studies s
		LEFT JOIN participations p ON p.study_id = s.id
		GROUP BY s.id, s.name, s.code, s.open_participation, s.created_at
		ORDER BY s.name, s.created_at
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	defer rows.Close()

	summaries := []study.StudySummary{}
	for rows.Next() {
		var s study.StudySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.OpenParticipation, &s.CreatedAt, &s.ParticipationCount); err != nil {
			return nil, fmt.Errorf("failed to scan study summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study rows: %w", err)
	}
	return summaries, nil
}

// Count returns the number of studies
func (r *StudyRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM studies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count studies: %w", err)
	}
	return n, nil
}

// CodeExists reports whether a study code is taken
func (r *StudyRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM studies WHERE code = ?`, code).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check study code: %w", err)
	}
	return n > 0, nil
}

// Update replaces the study settings. Folders and placements are synced
// separately.
func (r *StudyRepository) Update(ctx context.Context, st *study.Study) error {
	query := `
		UPDATE studies
		SET name = ?, open_participation = ?, consent_required = ?, consent_text = ?,
		    timer_mode = ?, external_image_mode = ?, duration_in_minutes = ?,
		    start_text = ?, start_link_template = ?, end_text = ?, end_link_template = ?
		WHERE id = ?
	`
	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		st.Name,
		st.OpenParticipation,
		st.ConsentRequired,
		st.ConsentText,
		string(st.TimerMode),
		string(st.ExternalImageMode),
		nullInt(st.DurationInMinutes),
		st.StartText,
		nullString(st.StartLinkTemplate),
		st.EndText,
		nullString(st.EndLinkTemplate),
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update study: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// Delete removes a study and everything recorded under it, children first:
// events, mailbox emails, participations, folders, placements, the study.
func (r *StudyRepository) Delete(ctx context.Context, id string) error {
	steps := []struct {
		name  string
		query string
	}{
		{"events", `
			DELETE FROM participation_email_events
			WHERE participation_email_id IN (
				SELECT pe.id FROM participation_emails pe
				JOIN participations p ON p.id = pe.participation_id
				WHERE p.study_id = ?
			)`},
		{"participation emails", `
			DELETE FROM participation_emails
			WHERE participation_id IN (SELECT id FROM participations WHERE study_id = ?)`},
		{"participations", `DELETE FROM participations WHERE study_id = ?`},
		{"folders", `DELETE FROM folders WHERE study_id = ?`},
		{"study emails", `DELETE FROM study_emails WHERE study_id = ?`},
	}

	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.conn(ctx)
		for _, step := range steps {
			if _, err := q.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, err)
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM studies WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete study: %w", mapWriteError(err))
		}
		return requireAffected(res)
	})
}

// CreateFolder inserts a folder
func (r *StudyRepository) CreateFolder(ctx context.Context, f *study.Folder) error {
	query := `INSERT INTO folders (id, study_id, name, sort_order, is_phishing) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.conn(ctx).ExecContext(ctx, query, f.ID, f.StudyID, f.Name, f.Order, f.IsPhishing); err != nil {
		return fmt.Errorf("failed to create folder: %w", mapWriteError(err))
	}
	return nil
}

// UpdateFolder updates a folder of the same study
func (r *StudyRepository) UpdateFolder(ctx context.Context, f *study.Folder) error {
	query := `UPDATE folders SET name = ?, sort_order = ?, is_phishing = ? WHERE id = ? AND study_id = ?`
	res, err := r.db.conn(ctx).ExecContext(ctx, query, f.Name, f.Order, f.IsPhishing, f.ID, f.StudyID)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// DeleteFolder removes a folder; mailbox emails filed there become unsorted
func (r *StudyRepository) DeleteFolder(ctx context.Context, studyID, id string) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND study_id = ?`, id, studyID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// CreateStudyEmail inserts an email placement
func (r *StudyRepository) CreateStudyEmail(ctx context.Context, se *study.StudyEmail) error {
	query := `INSERT INTO study_emails (id, study_id, email_id, sort_order, is_phishing) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.conn(ctx).ExecContext(ctx, query, se.ID, se.StudyID, se.EmailID, se.Order, se.IsPhishing); err != nil {
		return fmt.Errorf("failed to create study email: %w", mapWriteError(err))
	}
	return nil
}

// UpdateStudyEmail updates an email placement of the same study
func (r *StudyRepository) UpdateStudyEmail(ctx context.Context, se *study.StudyEmail) error {
	query := `UPDATE study_emails SET email_id = ?, sort_order = ?, is_phishing = ? WHERE id = ? AND study_id = ?`
	res, err := r.db.conn(ctx).ExecContext(ctx, query, se.EmailID, se.Order, se.IsPhishing, se.ID, se.StudyID)
	if err != nil {
		return fmt.Errorf("failed to update study email: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// DeleteStudyEmail removes an email placement. Materialised mailboxes keep
// their copy.
func (r *StudyRepository) DeleteStudyEmail(ctx context.Context, studyID, id string) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM study_emails WHERE id = ? AND study_id = ?`, id, studyID)
	if err != nil {
		return fmt.Errorf("failed to delete study email: %w", mapWriteError(err))
	}
	return requireAffected(res)
}
