package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/repository"
)

// EmailRepository implements email.Repository for SQLite
type EmailRepository struct {
	db *DB
}

// NewEmailRepository creates a new EmailRepository
func NewEmailRepository(db *DB) *EmailRepository {
	return &EmailRepository{db: db}
}

const emailColumns = `id, sender_mail, sender_name, subject, headers, body, allow_external_images, backoffice_identifier, created_at`

// Create inserts a new email template
func (r *EmailRepository) Create(ctx context.Context, e *email.Email) error {
	query := `INSERT INTO emails (` + emailColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		e.ID,
		e.SenderMail,
		e.SenderName,
		e.Subject,
		e.Headers,
		e.Body,
		e.AllowExternalImages,
		e.BackofficeIdentifier,
		utc(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create email: %w", mapWriteError(err))
	}
	return nil
}

// Get retrieves an email by ID
func (r *EmailRepository) Get(ctx context.Context, id string) (*email.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = ?`

	e, err := scanEmail(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return e, nil
}

// List returns all emails ordered by backoffice identifier
func (r *EmailRepository) List(ctx context.Context) ([]email.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails ORDER BY backoffice_identifier, created_at`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	emails := []email.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email rows: %w", err)
	}
	return emails, nil
}

// Update replaces the editable fields of an email
func (r *EmailRepository) Update(ctx context.Context, e *email.Email) error {
	query := `
		UPDATE emails
		SET sender_mail = ?, sender_name = ?, subject = ?, headers = ?, body = ?,
		    allow_external_images = ?, backoffice_identifier = ?
		WHERE id = ?
	`

	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		e.SenderMail,
		e.SenderName,
		e.Subject,
		e.Headers,
		e.Body,
		e.AllowExternalImages,
		e.BackofficeIdentifier,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// Delete removes an email. Fails with a foreign key violation while any
// study or mailbox still references it.
func (r *EmailRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM emails WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete email: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (*email.Email, error) {
	var e email.Email
	err := row.Scan(
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
	return &e, nil
}
