package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/phishbox/internal/domain/report"
)

// toolError turns a domain error into a message a research client can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, report.ErrStudyNotFound):
		return fmt.Errorf("study not found: check the ID with list_studies")
	case errors.Is(err, report.ErrParticipationNotFound):
		return fmt.Errorf("participation not found: check the ID with study_report")
	default:
		return err
	}
}
