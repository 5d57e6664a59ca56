package repository

import (
	"context"

	"github.com/fastygo/roadmap/internal/realtime"
)

// Repos groups repositories bound to one transaction.
type Repos struct {
	Items    ItemRepository
	Comments CommentRepository
	Events   EventRepository
	Profiles ProfileRepository
	Invites  InviteRepository
}

// Transactor runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// ChangeBus fans realtime item changes out to live sessions.
type ChangeBus interface {
	Publish(ctx context.Context, change realtime.Change) error
	// Subscribe delivers raw wire messages until ctx is done or the returned
	// close function is called.
	Subscribe(ctx context.Context) (<-chan []byte, func() error, error)
}
