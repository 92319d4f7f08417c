package participation

import (
	"time"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/study"
)

// Participation is one participant's attempt at a study. Its lifecycle is
// encoded in the nullable milestone timestamps rather than a state column.
type Participation struct {
	ID                 string     `json:"id"`
	StudyID            string     `json:"study_id"`
	Code               string     `json:"code"`
	CreatedAt          time.Time  `json:"created_at"`
	CodeUsedAt         *time.Time `json:"code_used_at,omitempty"`
	ConsentGivenAt     *time.Time `json:"consent_given_at,omitempty"`
	StartLinkClickedAt *time.Time `json:"start_link_clicked_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	EndLinkClickedAt   *time.Time `json:"end_link_clicked_at,omitempty"`
}

// ParticipationEmail is one email materialised into a participation's mailbox.
// A nil FolderID means the email is still unsorted in the inbox.
type ParticipationEmail struct {
	ID              string       `json:"id"`
	ParticipationID string       `json:"participation_id"`
	EmailID         string       `json:"email_id"`
	FolderID        *string      `json:"folder_id,omitempty"`
	Order           int          `json:"order"`
	Email           *email.Email `json:"email,omitempty"`
}

// Milestone names one of the lifecycle timestamps.
type Milestone string

const (
	MilestoneCodeUsed         Milestone = "code_used_at"
	MilestoneConsentGiven     Milestone = "consent_given_at"
	MilestoneStartLinkClicked Milestone = "start_link_clicked_at"
	MilestoneStarted          Milestone = "started_at"
	MilestoneFinished         Milestone = "finished_at"
	MilestoneEndLinkClicked   Milestone = "end_link_clicked_at"
)

// Milestones lists the lifecycle timestamps in their required order.
var Milestones = []Milestone{
	MilestoneCodeUsed,
	MilestoneConsentGiven,
	MilestoneStartLinkClicked,
	MilestoneStarted,
	MilestoneFinished,
	MilestoneEndLinkClicked,
}

// At returns the timestamp recorded for a milestone, or nil.
func (p *Participation) At(m Milestone) *time.Time {
	switch m {
	case MilestoneCodeUsed:
		return p.CodeUsedAt
	case MilestoneConsentGiven:
		return p.ConsentGivenAt
	case MilestoneStartLinkClicked:
		return p.StartLinkClickedAt
	case MilestoneStarted:
		return p.StartedAt
	case MilestoneFinished:
		return p.FinishedAt
	case MilestoneEndLinkClicked:
		return p.EndLinkClickedAt
	}
	return nil
}

func (p *Participation) set(m Milestone, at time.Time) {
	switch m {
	case MilestoneCodeUsed:
		p.CodeUsedAt = &at
	case MilestoneConsentGiven:
		p.ConsentGivenAt = &at
	case MilestoneStartLinkClicked:
		p.StartLinkClickedAt = &at
	case MilestoneStarted:
		p.StartedAt = &at
	case MilestoneFinished:
		p.FinishedAt = &at
	case MilestoneEndLinkClicked:
		p.EndLinkClickedAt = &at
	}
}

// Status is the derived lifecycle position of a participation.
type Status string

const (
	StatusCreated   Status = "created"
	StatusCodeUsed  Status = "code_used"
	StatusConsented Status = "consented"
	StatusStarted   Status = "started"
	StatusTimedOut  Status = "timed_out"
	StatusFinished  Status = "finished"
)

// View is the full participant-facing tree returned by code lookups.
type View struct {
	Participation Participation        `json:"participation"`
	Study         StudyView            `json:"study"`
	Emails        []ParticipationEmail `json:"emails"`
	Status        Status               `json:"status"`
	Completed     bool                 `json:"completed"`
	Deadline      *time.Time           `json:"deadline,omitempty"`
	StartLink     string               `json:"start_link,omitempty"`
	EndLink       string               `json:"end_link,omitempty"`
}

// StudyView is the participant-visible subset of a study.
type StudyView struct {
	ID                string                  `json:"id"`
	Name              string                  `json:"name"`
	ConsentRequired   bool                    `json:"consent_required"`
	ConsentText       string                  `json:"consent_text"`
	TimerMode         study.TimerMode         `json:"timer_mode"`
	ExternalImageMode study.ExternalImageMode `json:"external_image_mode"`
	DurationInMinutes *int                    `json:"duration_in_minutes,omitempty"`
	StartText         string                  `json:"start_text"`
	EndText           string                  `json:"end_text"`
	Folders           []study.Folder          `json:"folders"`
}

func newStudyView(st *study.Study) StudyView {
	return StudyView{
		ID:                st.ID,
		Name:              st.Name,
		ConsentRequired:   st.ConsentRequired,
		ConsentText:       st.ConsentText,
		TimerMode:         st.TimerMode,
		ExternalImageMode: st.ExternalImageMode,
		DurationInMinutes: st.DurationInMinutes,
		StartText:         st.StartText,
		EndText:           st.EndText,
		Folders:           st.Folders,
	}
}
