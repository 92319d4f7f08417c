package rpc

import (
	"encoding/json"

	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/study"
)

// CodeParams identifies a participation or study by code.
type CodeParams struct {
	Code string `json:"code" validate:"required"`
}

// IDParams identifies an entity by ID.
type IDParams struct {
	ID string `json:"id" validate:"required"`
}

// MoveEmailParams files a mailbox email into a folder.
type MoveEmailParams struct {
	ID       string `json:"id" validate:"required"`
	EmailID  string `json:"emailId" validate:"required"`
	FolderID string `json:"folderId" validate:"required"`
}

// TrackParams records one behavioural event. Event carries the tagged
// payload, e.g. {"type":"email-scrolled","scrollPosition":0.4}.
type TrackParams struct {
	ParticipationID      string          `json:"participationId" validate:"required"`
	ParticipationEmailID string          `json:"participationEmailId" validate:"required"`
	Event                json.RawMessage `json:"event" validate:"required"`
}

// LoginParams carries login credentials.
type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// FolderParams describes a folder in a study add or update.
type FolderParams struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name" validate:"required"`
	Order      int    `json:"order" validate:"gte=0"`
	IsPhishing bool   `json:"isPhishing"`
}

// StudyEmailParams describes an email placement in a study add or update.
type StudyEmailParams struct {
	ID         string `json:"id,omitempty"`
	EmailID    string `json:"emailId" validate:"required"`
	Order      int    `json:"order" validate:"gte=0"`
	IsPhishing bool   `json:"isPhishing"`
}

// StudyParams carries the editable study fields.
type StudyParams struct {
	Name              string             `json:"name" validate:"required"`
	OpenParticipation bool               `json:"openParticipation"`
	ConsentRequired   bool               `json:"consentRequired"`
	ConsentText       string             `json:"consentText"`
	TimerMode         string             `json:"timerMode" validate:"required,oneof=DISABLED HIDDEN VISIBLE"`
	ExternalImageMode string             `json:"externalImageMode" validate:"required,oneof=ASK HIDE SHOW"`
	DurationInMinutes *int               `json:"durationInMinutes" validate:"omitempty,gt=0"`
	StartText         string             `json:"startText"`
	StartLinkTemplate *string            `json:"startLinkTemplate"`
	EndText           string             `json:"endText"`
	EndLinkTemplate   *string            `json:"endLinkTemplate"`
	Folders           []FolderParams     `json:"folders" validate:"dive"`
	Emails            []StudyEmailParams `json:"emails" validate:"dive"`
}

// UpdateStudyParams replaces a study's settings, folders and placements.
type UpdateStudyParams struct {
	ID string `json:"id" validate:"required"`
	StudyParams
}

// ProvisionParams pre-creates participations for a study.
type ProvisionParams struct {
	StudyID string `json:"studyId" validate:"required"`
	Count   int    `json:"count" validate:"gte=1,lte=1000"`
}

// StudyIDParams identifies a study by ID.
type StudyIDParams struct {
	StudyID string `json:"studyId" validate:"required"`
}

// EmailParams carries the editable email fields.
type EmailParams struct {
	SenderMail           string `json:"senderMail" validate:"required"`
	SenderName           string `json:"senderName"`
	Subject              string `json:"subject" validate:"required"`
	Headers              string `json:"headers"`
	Body                 string `json:"body"`
	AllowExternalImages  bool   `json:"allowExternalImages"`
	BackofficeIdentifier string `json:"backofficeIdentifier"`
}

// UpdateEmailParams replaces an email's fields.
type UpdateEmailParams struct {
	ID string `json:"id" validate:"required"`
	EmailParams
}

// UserParams describes a user account.
type UserParams struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password"`
	CanManageUsers bool   `json:"canManageUsers"`
}

// UpdateUserParams replaces another user's account.
type UpdateUserParams struct {
	ID string `json:"id" validate:"required"`
	UserParams
}

// ParticipationIDParams identifies a participation by ID.
type ParticipationIDParams struct {
	ParticipationID string `json:"participationId" validate:"required"`
}

// OK is returned by commands without a payload.
type OK struct {
	OK bool `json:"ok"`
}

func (p StudyParams) settings() study.Settings {
	return study.Settings{
		Name:              p.Name,
		OpenParticipation: p.OpenParticipation,
		ConsentRequired:   p.ConsentRequired,
		ConsentText:       p.ConsentText,
		TimerMode:         study.TimerMode(p.TimerMode),
		ExternalImageMode: study.ExternalImageMode(p.ExternalImageMode),
		DurationInMinutes: p.DurationInMinutes,
		StartText:         p.StartText,
		StartLinkTemplate: p.StartLinkTemplate,
		EndText:           p.EndText,
		EndLinkTemplate:   p.EndLinkTemplate,
	}
}

func (p StudyParams) folders() []study.FolderInput {
	out := make([]study.FolderInput, 0, len(p.Folders))
	for _, f := range p.Folders {
		out = append(out, study.FolderInput{ID: f.ID, Name: f.Name, Order: f.Order, IsPhishing: f.IsPhishing})
	}
	return out
}

func (p StudyParams) emails() []study.StudyEmailInput {
	out := make([]study.StudyEmailInput, 0, len(p.Emails))
	for _, e := range p.Emails {
		out = append(out, study.StudyEmailInput{ID: e.ID, EmailID: e.EmailID, Order: e.Order, IsPhishing: e.IsPhishing})
	}
	return out
}

func (p EmailParams) input() email.Input {
	return email.Input{
		SenderMail:           p.SenderMail,
		SenderName:           p.SenderName,
		Subject:              p.Subject,
		Headers:              p.Headers,
		Body:                 p.Body,
		AllowExternalImages:  p.AllowExternalImages,
		BackofficeIdentifier: p.BackofficeIdentifier,
	}
}
