package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rpggio/phishbox/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Service manages back-office users and logins.
type Service struct {
	repo   Repository
	sign   TokenSigner
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, sign TokenSigner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:   repo,
		sign:   sign,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// CreateInput describes a new user.
type CreateInput struct {
	Email          string
	Password       string
	CanManageUsers bool
}

// UpdateInput replaces a user's email and permission. An empty password keeps
// the current one.
type UpdateInput struct {
	Email          string
	Password       string
	CanManageUsers bool
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.sign == nil {
		return nil, errors.New("token signer not configured")
	}
	token, err := s.sign(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return &LoginResult{Token: token, UserID: u.ID, Email: u.Email}, nil
}

// EnsureAdmin creates an administrator with the user management permission
// when no user exists yet. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.create(ctx, CreateInput{Email: email, Password: password, CanManageUsers: true}); err != nil {
		return false, err
	}
	return true, nil
}

// List returns all users. Requires the user management permission.
func (s *Service) List(ctx context.Context, actorID string) ([]User, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Get returns a user. Users may always read their own account.
func (s *Service) Get(ctx context.Context, actorID, id string) (*User, error) {
	if actorID != id {
		if err := s.requireManager(ctx, actorID); err != nil {
			return nil, err
		}
	}
	return s.load(ctx, id)
}

// Create adds a user. Requires the user management permission.
func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (*User, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", u.ID, "actor_id", actorID)
	return u, nil
}

// Update changes another user's account. Users cannot change their own
// permissions through this path.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (*User, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}
	if actorID == id {
		return nil, ErrSelfModification
	}
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Email = email
	u.CanManageUsers = in.CanManageUsers
	if in.Password != "" {
		if u.PasswordHash, err = s.hash(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated", "user_id", id, "actor_id", actorID)
	return u, nil
}

// Delete removes another user.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}
	if actorID == id {
		return ErrSelfModification
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", id, "actor_id", actorID)
	return nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordHash:   hash,
		CanManageUsers: in.CanManageUsers,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// requireManager reloads the actor so revoked permissions apply immediately.
func (s *Service) requireManager(ctx context.Context, actorID string) error {
	actor, err := s.repo.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("get acting user: %w", err)
	}
	if !actor.CanManageUsers {
		return ErrForbidden
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = validator.New()

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: email %q is not an address", ErrInvalidInput, email)
	}
	return nil
}
