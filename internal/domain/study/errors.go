package study

import "errors"

var (
	// ErrStudyNotFound indicates the study doesn't exist.
	ErrStudyNotFound = errors.New("study not found")
	// ErrInvalidInput indicates invalid study input.
	ErrInvalidInput = errors.New("invalid study input")
	// ErrUnknownFolder indicates an update referenced a folder of another study.
	ErrUnknownFolder = errors.New("folder does not belong to study")
	// ErrUnknownStudyEmail indicates an update referenced a placement of another study.
	ErrUnknownStudyEmail = errors.New("study email does not belong to study")
	// ErrEmailNotFound indicates a placement references a missing email.
	ErrEmailNotFound = errors.New("email not found")
)
