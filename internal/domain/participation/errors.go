package participation

import "errors"

var (
	// ErrNotFound indicates the participation, code or mailbox email doesn't exist.
	ErrNotFound = errors.New("participation not found")
	// ErrEmailNotFound indicates no mailbox email matches the participation.
	ErrEmailNotFound = errors.New("participation email not found")
	// ErrFolderNotFound indicates the folder is not part of the participation's study.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrInvalidState indicates the participation's lifecycle forbids the command.
	ErrInvalidState = errors.New("action not available in current participation state")
	// ErrPreconditionFailed indicates finish was requested too early.
	ErrPreconditionFailed = errors.New("not all emails sorted and time not elapsed")
	// ErrStudyClosed indicates the study does not accept self-service participations.
	ErrStudyClosed = errors.New("study does not accept open participation")
	// ErrInvalidInput indicates invalid participation input.
	ErrInvalidInput = errors.New("invalid participation input")
)

// ErrStudyNotFound indicates the participation's study doesn't exist.
var ErrStudyNotFound = errors.New("study not found")
