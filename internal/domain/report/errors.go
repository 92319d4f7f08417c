package report

import "errors"

var (
	// ErrStudyNotFound indicates the study doesn't exist.
	ErrStudyNotFound = errors.New("study not found")
	// ErrParticipationNotFound indicates the participation doesn't exist.
	ErrParticipationNotFound = errors.New("participation not found")
)
