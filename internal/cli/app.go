// Package cli implements the roadmap terminal dashboard: one-shot renderings
// of the list, timeline and kanban views plus a live watch mode fed by the
// realtime change bus.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/live"
	"github.com/fastygo/roadmap/internal/projector"
)

// Roadmap is the item backend used by the commands.
type Roadmap interface {
	live.Backend
	RecentEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// Subscriber opens the realtime change stream.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan []byte, func() error, error)
}

// IdentityResolver makes sure the acting member has a profile.
type IdentityResolver interface {
	Resolve(ctx context.Context, id domain.Identity) (domain.Identity, error)
}

// App holds the collaborators shared by all commands.
type App struct {
	Roadmap  Roadmap
	Bus      Subscriber
	Identity IdentityResolver

	Out io.Writer
	Err io.Writer

	// Styled enables colors; main sets it when stdout is a terminal.
	Styled        bool
	ViewOptions   []projector.Option
	ActivityLimit int
	Now           func() time.Time
	Logger        *zap.Logger

	actor domain.Identity
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *App) theme() theme {
	return theme{plain: !a.Styled}
}

// member returns the --user identity, resolved against the stored profiles.
func (a *App) member(ctx context.Context) (domain.Identity, error) {
	if !a.actor.Authenticated() {
		return domain.Identity{}, errUserRequired
	}
	if a.Identity == nil {
		return a.actor, nil
	}
	return a.Identity.Resolve(ctx, a.actor)
}
