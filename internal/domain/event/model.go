package event

import "time"

// Type discriminates the behavioural event variants.
type Type string

const (
	TypeEmailView               Type = "email-view"
	TypeEmailDetailsView        Type = "email-details-view"
	TypeEmailExternalImagesView Type = "email-external-images-view"
	TypeEmailMoved              Type = "email-moved"
	TypeEmailScrolled           Type = "email-scrolled"
	TypeEmailLinkClick          Type = "email-link-click"
	TypeEmailLinkHover          Type = "email-link-hover"
)

// Payload is the closed set of event variants. Only types in this package
// implement it.
type Payload interface {
	Type() Type
	payload()
}

// EmailView records the participant opening an email in the reader.
type EmailView struct{}

// EmailDetailsView records the participant opening the raw headers panel.
type EmailDetailsView struct{}

// EmailExternalImagesView records the participant loading blocked remote images.
type EmailExternalImagesView struct{}

// EmailMoved records a folder change. It is only produced by the lifecycle
// engine, never accepted from clients.
type EmailMoved struct {
	FromFolderID *string `json:"fromFolderId"`
	ToFolderID   string  `json:"toFolderId" validate:"required"`
}

// EmailScrolled is a debounced scroll depth sample in [0,1].
type EmailScrolled struct {
	ScrollPosition float64 `json:"scrollPosition"`
}

// EmailLinkClick records a click on a hyperlink inside the email body.
type EmailLinkClick struct {
	URL      string `json:"url" validate:"required,url"`
	LinkText string `json:"linkText"`
}

// EmailLinkHover records a sustained hover over a hyperlink.
type EmailLinkHover struct {
	URL      string `json:"url" validate:"required,url"`
	LinkText string `json:"linkText"`
}

func (EmailView) Type() Type               { return TypeEmailView }
func (EmailDetailsView) Type() Type        { return TypeEmailDetailsView }
func (EmailExternalImagesView) Type() Type { return TypeEmailExternalImagesView }
func (EmailMoved) Type() Type              { return TypeEmailMoved }
func (EmailScrolled) Type() Type           { return TypeEmailScrolled }
func (EmailLinkClick) Type() Type          { return TypeEmailLinkClick }
func (EmailLinkHover) Type() Type          { return TypeEmailLinkHover }

func (EmailView) payload()               {}
func (EmailDetailsView) payload()        {}
func (EmailExternalImagesView) payload() {}
func (EmailMoved) payload()              {}
func (EmailScrolled) payload()           {}
func (EmailLinkClick) payload()          {}
func (EmailLinkHover) payload()          {}

// Event is one immutable row of the behavioural log.
type Event struct {
	ID                   int64     `json:"id"`
	ParticipationEmailID string    `json:"participation_email_id"`
	CreatedAt            time.Time `json:"created_at"`
	Payload              Payload   `json:"-"`
}

// Record is an event joined with the mailbox email it belongs to, as read
// back for export.
type Record struct {
	Event           Event  `json:"event"`
	ParticipationID string `json:"participation_id"`
	EmailID         string `json:"email_id"`
}
