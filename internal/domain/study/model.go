package study

import (
	"strings"
	"time"
)

// TimerMode controls whether a countdown is shown and whether it auto-finishes.
type TimerMode string

const (
	TimerDisabled TimerMode = "DISABLED"
	TimerHidden   TimerMode = "HIDDEN"
	TimerVisible  TimerMode = "VISIBLE"
)

// ExternalImageMode controls how remote images in email bodies are handled.
type ExternalImageMode string

const (
	ExternalImagesAsk  ExternalImageMode = "ASK"
	ExternalImagesHide ExternalImageMode = "HIDE"
	ExternalImagesShow ExternalImageMode = "SHOW"
)

// codePlaceholder is replaced with the participant code in link templates.
const codePlaceholder = "{code}"

// Study is the configuration template for one training exercise.
type Study struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Code              string            `json:"code"`
	OpenParticipation bool              `json:"open_participation"`
	ConsentRequired   bool              `json:"consent_required"`
	ConsentText       string            `json:"consent_text"`
	TimerMode         TimerMode         `json:"timer_mode"`
	ExternalImageMode ExternalImageMode `json:"external_image_mode"`
	DurationInMinutes *int              `json:"duration_in_minutes,omitempty"`
	StartText         string            `json:"start_text"`
	StartLinkTemplate *string           `json:"start_link_template,omitempty"`
	EndText           string            `json:"end_text"`
	EndLinkTemplate   *string           `json:"end_link_template,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Folders           []Folder          `json:"folders"`
	Emails            []StudyEmail      `json:"emails"`
}

// Folder is a sorting target inside a study's mailbox.
type Folder struct {
	ID         string `json:"id"`
	StudyID    string `json:"study_id"`
	Name       string `json:"name"`
	Order      int    `json:"order"`
	IsPhishing bool   `json:"is_phishing"`
}

// StudyEmail places an email into a study at a display position.
type StudyEmail struct {
	ID         string `json:"id"`
	StudyID    string `json:"study_id"`
	EmailID    string `json:"email_id"`
	Order      int    `json:"order"`
	IsPhishing bool   `json:"is_phishing"`
}

// StudySummary is a lightweight representation for listing
type StudySummary struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	OpenParticipation  bool      `json:"open_participation"`
	ParticipationCount int       `json:"participation_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// TimerEnabled reports whether the study runs a countdown at all.
func (s *Study) TimerEnabled() bool {
	return s.TimerMode != TimerDisabled && s.TimerMode != "" && s.DurationInMinutes != nil
}

// Duration returns the sorting time limit, if the timer is enabled.
func (s *Study) Duration() (time.Duration, bool) {
	if !s.TimerEnabled() {
		return 0, false
	}
	return time.Duration(*s.DurationInMinutes) * time.Minute, true
}

// HasFolder reports whether folderID belongs to this study.
func (s *Study) HasFolder(folderID string) bool {
	for _, f := range s.Folders {
		if f.ID == folderID {
			return true
		}
	}
	return false
}

// StartLink renders the start link for a participant code, if configured.
func (s *Study) StartLink(code string) string {
	return renderLink(s.StartLinkTemplate, code)
}

// EndLink renders the end link for a participant code, if configured.
func (s *Study) EndLink(code string) string {
	return renderLink(s.EndLinkTemplate, code)
}

func renderLink(template *string, code string) string {
	if template == nil || *template == "" {
		return ""
	}
	return strings.ReplaceAll(*template, codePlaceholder, code)
}
