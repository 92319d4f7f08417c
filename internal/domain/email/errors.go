package email

import "errors"

var (
	// ErrEmailNotFound indicates the email doesn't exist.
	ErrEmailNotFound = errors.New("email not found")
	// ErrEmailInUse indicates the email is still placed in a study or mailbox.
	ErrEmailInUse = errors.New("email is in use")
	// ErrInvalidInput indicates invalid email input.
	ErrInvalidInput = errors.New("invalid email input")
)
