package event

import "errors"

var (
	// ErrEmailNotFound indicates the participation/mailbox email pair doesn't resolve.
	ErrEmailNotFound = errors.New("participation email not found")
	// ErrInvalidInput indicates a malformed or forbidden event payload.
	ErrInvalidInput = errors.New("invalid event")
)
