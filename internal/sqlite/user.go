package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/user"
	"github.com/rpggio/phishbox/internal/repository"
)

// UserRepository implements user.Repository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, can_manage_users, created_at`

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.conn(ctx).ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.CanManageUsers, utc(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapWriteError(err))
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (*user.User, error) {
	u, err := scanUser(r.db.conn(ctx).QueryRowContext(ctx, query, arg))
	if notFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by email
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Update replaces email, password hash and permission
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	res, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, can_manage_users = ? WHERE id = ?`,
		u.Email, u.PasswordHash, u.CanManageUsers, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(res)
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CanManageUsers, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
