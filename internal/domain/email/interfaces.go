package email

import "context"

// Repository provides persistence for emails.
type Repository interface {
	Create(ctx context.Context, e *Email) error
	Get(ctx context.Context, id string) (*Email, error)
	List(ctx context.Context) ([]Email, error)
	Update(ctx context.Context, e *Email) error
	Delete(ctx context.Context, id string) error
}
