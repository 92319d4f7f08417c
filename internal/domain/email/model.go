package email

import "time"

// Email is an admin-authored message template that studies place into mailboxes.
type Email struct {
	ID                   string    `json:"id"`
	SenderMail           string    `json:"sender_mail"`
	SenderName           string    `json:"sender_name"`
	Subject              string    `json:"subject"`
	Headers              string    `json:"headers"`
	Body                 string    `json:"body"`
	AllowExternalImages  bool      `json:"allow_external_images"`
	BackofficeIdentifier string    `json:"backoffice_identifier"`
	CreatedAt            time.Time `json:"created_at"`
}
