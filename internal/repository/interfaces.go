package repository

import "context"

// Transactor runs fn inside a single storage transaction. Repositories called
// with the ctx handed to fn take part in that transaction; a non-nil error from
// fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
