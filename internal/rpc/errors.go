package rpc

import (
	"errors"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/report"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/domain/user"
)

var (
	// ErrUnauthorized indicates an admin method was called without a valid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMethodNotFound indicates the method name is not in the method table.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvalidParams indicates the params could not be decoded or failed validation.
	ErrInvalidParams = errors.New("invalid params")
)

// APIError is the structured error carried in the JSON-RPC error data.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInUse              = "IN_USE"
	CodeConflict           = "CONFLICT"
	CodeForbidden          = "FORBIDDEN"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// MapError maps domain errors to API errors. Unknown errors return nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, participation.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: "participation not found", RecoveryHint: "Check the participant code"}
	case errors.Is(err, participation.ErrEmailNotFound), errors.Is(err, event.ErrEmailNotFound):
		return &APIError{Code: CodeNotFound, Message: "email not found in this participation"}
	case errors.Is(err, participation.ErrFolderNotFound):
		return &APIError{Code: CodeNotFound, Message: "folder not found in this study"}
	case errors.Is(err, participation.ErrStudyNotFound), errors.Is(err, participation.ErrStudyClosed):
		return &APIError{Code: CodeNotFound, Message: "study not found", RecoveryHint: "Check the study code"}
	case errors.Is(err, participation.ErrInvalidState):
		return &APIError{Code: CodeInvalidState, Message: err.Error(), RecoveryHint: "Reload the participation"}
	case errors.Is(err, participation.ErrPreconditionFailed):
		return &APIError{Code: CodePreconditionFailed, Message: err.Error(), RecoveryHint: "Sort every email or wait for the timer"}
	case errors.Is(err, participation.ErrInvalidInput), errors.Is(err, event.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error()}

	case errors.Is(err, study.ErrStudyNotFound), errors.Is(err, report.ErrStudyNotFound):
		return &APIError{Code: CodeNotFound, Message: "study not found"}
	case errors.Is(err, report.ErrParticipationNotFound):
		return &APIError{Code: CodeNotFound, Message: "participation not found"}
	case errors.Is(err, study.ErrEmailNotFound), errors.Is(err, email.ErrEmailNotFound):
		return &APIError{Code: CodeNotFound, Message: "email not found"}
	case errors.Is(err, study.ErrUnknownFolder), errors.Is(err, study.ErrUnknownStudyEmail):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Reload the study before editing"}
	case errors.Is(err, study.ErrInvalidInput), errors.Is(err, email.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error()}
	case errors.Is(err, email.ErrEmailInUse):
		return &APIError{Code: CodeInUse, Message: err.Error(), RecoveryHint: "Remove the email from its studies first"}

	case errors.Is(err, user.ErrUserNotFound):
		return &APIError{Code: CodeNotFound, Message: "user not found"}
	case errors.Is(err, user.ErrEmailTaken):
		return &APIError{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return &APIError{Code: CodeUnauthorized, Message: err.Error(), RecoveryHint: "Log in again"}
	case errors.Is(err, user.ErrForbidden), errors.Is(err, user.ErrSelfModification):
		return &APIError{Code: CodeForbidden, Message: err.Error()}

	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: CodeInvalidInput, Message: err.Error()}
	default:
		return nil
	}
}
