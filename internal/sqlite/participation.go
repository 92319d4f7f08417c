package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/repository"
)

// ParticipationRepository implements participation.Repository for SQLite
type ParticipationRepository struct {
	db *DB
}

// NewParticipationRepository creates a new ParticipationRepository
func NewParticipationRepository(db *DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

const participationColumns = `id, study_id, code, created_at, code_used_at, consent_given_at,
	start_link_clicked_at, started_at, finished_at, end_link_clicked_at`

// milestoneColumns whitelists the columns SetTimestamp may write.
var milestoneColumns = map[participation.Milestone]string{
	participation.MilestoneCodeUsed:         "code_used_at",
	participation.MilestoneConsentGiven:     "consent_given_at",
	participation.MilestoneStartLinkClicked: "start_link_clicked_at",
	participation.MilestoneStarted:          "started_at",
	participation.MilestoneFinished:         "finished_at",
	participation.MilestoneEndLinkClicked:   "end_link_clicked_at",
}

// Create inserts a new participation
func (r *ParticipationRepository) Create(ctx context.Context, p *participation.Participation) error {
	query := `INSERT INTO participations (` + participationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.ID,
		p.StudyID,
		p.Code,
		utc(p.CreatedAt),
		nullTime(p.CodeUsedAt),
		nullTime(p.ConsentGivenAt),
		nullTime(p.StartLinkClickedAt),
		nullTime(p.StartedAt),
		nullTime(p.FinishedAt),
		nullTime(p.EndLinkClickedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create participation: %w", mapWriteError(err))
	}
	return nil
}

// Get retrieves a participation by ID
func (r *ParticipationRepository) Get(ctx context.Context, id string) (*participation.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a participation by its participant code
func (r *ParticipationRepository) GetByCode(ctx context.Context, code string) (*participation.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE code = ?`
	return r.getOne(ctx, query, code)
}

func (r *ParticipationRepository) getOne(ctx context.Context, query string, arg string) (*participation.Participation, error) {
	p, err := scanParticipation(r.db.conn(ctx).QueryRowContext(ctx, query, arg))
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

// ListByStudy returns a study's participations in creation order
func (r *ParticipationRepository) ListByStudy(ctx context.Context, studyID string) ([]participation.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE study_id = ? ORDER BY created_at, code`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	list := []participation.Participation{}
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation rows: %w", err)
	}
	return list, nil
}

// Count returns the number of participations across all studies
func (r *ParticipationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM participations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return n, nil
}

// CodeExists reports whether a participant code is taken
func (r *ParticipationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM participations WHERE code = ?`, code).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check participation code: %w", err)
	}
	return n > 0, nil
}

// SetTimestamp writes a milestone only while it is NULL and reports whether
// this call wrote it
func (r *ParticipationRepository) SetTimestamp(ctx context.Context, id string, m participation.Milestone, at time.Time) (bool, error) {
	column, ok := milestoneColumns[m]
	if !ok {
		return false, fmt.Errorf("%w: unknown milestone %q", repository.ErrInvalidInput, m)
	}

	q := r.db.conn(ctx)
	query := `UPDATE participations SET ` + column + ` = ? WHERE id = ? AND ` + column + ` IS NULL`
	res, err := q.ExecContext(ctx, query, utc(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to set %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM participations WHERE id = ?`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	if exists == 0 {
		return false, repository.ErrNotFound
	}
	return false, nil
}

// MaterializeEmails copies the study's placements into the mailbox in study
// order. Pairs that already exist are left alone.
func (r *ParticipationRepository) MaterializeEmails(ctx context.Context, participationID, studyID string) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.conn(ctx)
		rows, err := q.QueryContext(ctx, `
			SELECT email_id, sort_order
			FROM study_emails
			WHERE study_id = ?
			ORDER BY sort_order, rowid
		`, studyID)
		if err != nil {
			return fmt.Errorf("failed to read study emails: %w", err)
		}

		type placement struct {
			emailID string
			order   int
		}
		var placements []placement
		for rows.Next() {
			var pl placement
			if err := rows.Scan(&pl.emailID, &pl.order); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan study email: %w", err)
			}
			placements = append(placements, pl)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error iterating study email rows: %w", err)
		}
		rows.Close()

		insert := `
			INSERT INTO participation_emails (id, participation_id, email_id, folder_id, sort_order)
			VALUES (?, ?, ?, NULL, ?)
			ON CONFLICT (participation_id, email_id) DO NOTHING
		`
		for _, pl := range placements {
			if _, err := q.ExecContext(ctx, insert, uuid.NewString(), participationID, pl.emailID, pl.order); err != nil {
				return fmt.Errorf("failed to materialize email: %w", mapWriteError(err))
			}
		}
		return nil
	})
}

const participationEmailSelect = `
	SELECT pe.id, pe.participation_id, pe.email_id, pe.folder_id, pe.sort_order,
	       e.id, e.sender_mail, e.sender_name, e.subject, e.headers, e.body,
	       e.allow_external_images, e.backoffice_identifier, e.created_at
	FROM participation_emails pe
	JOIN emails e ON e.id = pe.email_id
`

// ListEmails returns the mailbox of a participation with email content, in
// display order
func (r *ParticipationRepository) ListEmails(ctx context.Context, participationID string) ([]participation.ParticipationEmail, error) {
	query := participationEmailSelect + ` WHERE pe.participation_id = ? ORDER BY pe.sort_order, pe.rowid`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participation emails: %w", err)
	}
	defer rows.Close()

	list := []participation.ParticipationEmail{}
	for rows.Next() {
		pe, err := scanParticipationEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation email: %w", err)
		}
		list = append(list, *pe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation email rows: %w", err)
	}
	return list, nil
}

// GetEmail finds the mailbox row of an email within a participation
func (r *ParticipationRepository) GetEmail(ctx context.Context, participationID, emailID string) (*participation.ParticipationEmail, error) {
	query := participationEmailSelect + ` WHERE pe.participation_id = ? AND pe.email_id = ?`
	pe, err := scanParticipationEmail(r.db.conn(ctx).QueryRowContext(ctx, query, participationID, emailID))
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation email: %w", err)
	}
	return pe, nil
}

// SetEmailFolder files a mailbox email into a folder
func (r *ParticipationRepository) SetEmailFolder(ctx context.Context, participationEmailID, folderID string) error {
	res, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE participation_emails SET folder_id = ? WHERE id = ?`, folderID, participationEmailID)
	if err != nil {
		return fmt.Errorf("failed to move participation email: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// CountUnsorted returns how many mailbox emails still sit in the inbox
func (r *ParticipationRepository) CountUnsorted(ctx context.Context, participationID string) (int, error) {
	var n int
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participation_emails WHERE participation_id = ? AND folder_id IS NULL`,
		participationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsorted emails: %w", err)
	}
	return n, nil
}

func scanParticipation(row rowScanner) (*participation.Participation, error) {
	var (
		p                                                        participation.Participation
		codeUsed, consent, startLink, started, finished, endLink sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&p.StudyID,
		&p.Code,
		&p.CreatedAt,
		&codeUsed,
		&consent,
		&startLink,
		&started,
		&finished,
		&endLink,
	)
	if err != nil {
		return nil, err
	}
	p.CodeUsedAt = timePtr(codeUsed)
	p.ConsentGivenAt = timePtr(consent)
	p.StartLinkClickedAt = timePtr(startLink)
	p.StartedAt = timePtr(started)
	p.FinishedAt = timePtr(finished)
	p.EndLinkClickedAt = timePtr(endLink)
	return &p, nil
}

func scanParticipationEmail(row rowScanner) (*participation.ParticipationEmail, error) {
	var (
		pe     participation.ParticipationEmail
		e      email.Email
		folder sql.NullString
	)
	err := row.Scan(
		&pe.ID,
		&pe.ParticipationID,
		&pe.EmailID,
		&folder,
		&pe.Order,
		&e.ID,
		&e.SenderMail,
		&e.SenderName,
		&e.Subject,
		&e.Headers,
		&e.Body,
		&e.AllowExternalImages,
		&e.BackofficeIdentifier,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	pe.FolderID = stringPtr(folder)
	pe.Email = &e
	return &pe, nil
}
