package participation

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/phishbox/internal/domain/study"
)

// Deadline returns when the timed sorting task ends. It is only defined once
// the participation has started in a study with an enabled timer.
func Deadline(p *Participation, st *study.Study) (time.Time, bool) {
	if p.StartedAt == nil {
		return time.Time{}, false
	}
	d, ok := st.Duration()
	if !ok {
		return time.Time{}, false
	}
	return p.StartedAt.Add(d), true
}

// IsCompleted reports whether the participation is over, either explicitly
// finished or past its deadline.
func IsCompleted(p *Participation, st *study.Study, now time.Time) bool {
	if p.FinishedAt != nil {
		return true
	}
	deadline, ok := Deadline(p, st)
	return ok && now.After(deadline)
}

// DeriveStatus maps the milestone timestamps onto a status label.
func DeriveStatus(p *Participation, st *study.Study, now time.Time) Status {
	switch {
	case p.FinishedAt != nil:
		return StatusFinished
	case IsCompleted(p, st, now):
		return StatusTimedOut
	case p.StartedAt != nil:
		return StatusStarted
	case p.ConsentGivenAt != nil:
		return StatusConsented
	case p.CodeUsedAt != nil:
		return StatusCodeUsed
	}
	return StatusCreated
}

// laterSet reports whether any milestone after m has been recorded.
func laterSet(p *Participation, m Milestone) bool {
	past := false
	for _, other := range Milestones {
		if past && p.At(other) != nil {
			return true
		}
		if other == m {
			past = true
		}
	}
	return false
}

// CheckOrder verifies the recorded milestones never decrease in time.
func CheckOrder(p *Participation) error {
	var prev *time.Time
	var prevName Milestone
	for _, m := range Milestones {
		at := p.At(m)
		if at == nil {
			continue
		}
		if prev != nil && at.Before(*prev) {
			return fmt.Errorf("%s precedes %s", m, prevName)
		}
		prev, prevName = at, m
	}
	return nil
}

// A guard decides whether a milestone should be recorded. It returns false
// with a nil error for idempotent no-ops.
type guard func(ctx context.Context, p *Participation, st *study.Study, now time.Time) (bool, error)

func consentGuard(_ context.Context, p *Participation, _ *study.Study, _ time.Time) (bool, error) {
	if p.ConsentGivenAt != nil {
		return false, nil
	}
	if laterSet(p, MilestoneConsentGiven) {
		return false, fmt.Errorf("%w: consent after start", ErrInvalidState)
	}
	return true, nil
}

func startLinkGuard(_ context.Context, p *Participation, _ *study.Study, _ time.Time) (bool, error) {
	return p.StartLinkClickedAt == nil && !laterSet(p, MilestoneStartLinkClicked), nil
}

func startGuard(_ context.Context, p *Participation, st *study.Study, _ time.Time) (bool, error) {
	switch {
	case p.StartedAt != nil:
		return false, fmt.Errorf("%w: already started", ErrInvalidState)
	case p.CodeUsedAt == nil:
		return false, fmt.Errorf("%w: code not redeemed", ErrInvalidState)
	case st.ConsentRequired && p.ConsentGivenAt == nil:
		return false, fmt.Errorf("%w: consent required", ErrInvalidState)
	}
	return true, nil
}

// finishGuard counts unsorted emails only when the deadline has not passed.
func finishGuard(unsorted func(ctx context.Context, participationID string) (int, error)) guard {
	return func(ctx context.Context, p *Participation, st *study.Study, now time.Time) (bool, error) {
		if p.StartedAt == nil {
			return false, fmt.Errorf("%w: not started", ErrInvalidState)
		}
		if p.FinishedAt != nil {
			return false, nil
		}
		if deadline, ok := Deadline(p, st); ok && !now.Before(deadline) {
			return true, nil
		}
		n, err := unsorted(ctx, p.ID)
		if err != nil {
			return false, fmt.Errorf("count unsorted emails: %w", err)
		}
		if n > 0 {
			return false, ErrPreconditionFailed
		}
		return true, nil
	}
}

func endLinkGuard(_ context.Context, p *Participation, _ *study.Study, _ time.Time) (bool, error) {
	return p.FinishedAt != nil && p.EndLinkClickedAt == nil, nil
}

// CanMove reports whether emails may currently be sorted.
func CanMove(p *Participation) error {
	switch {
	case p.StartedAt == nil:
		return fmt.Errorf("%w: not started", ErrInvalidState)
	case p.FinishedAt != nil:
		return fmt.Errorf("%w: already finished", ErrInvalidState)
	}
	return nil
}
