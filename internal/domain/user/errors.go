package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrEmailTaken indicates another user already has the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the acting user lacks the user management permission.
	ErrForbidden = errors.New("you do not have permission to manage users")
	// ErrSelfModification indicates an attempt to change one's own permissions or delete oneself.
	ErrSelfModification = errors.New("cannot modify own account permissions")
)
