// Package live runs a roadmap session: it keeps the item store in step with
// the server, applies the caller's edits optimistically and consumes the
// realtime change channel one message at a time.
package live

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/itemstore"
	"github.com/fastygo/roadmap/internal/notifier"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/internal/realtime"
)

// Backend is the server side of the session, implemented by the roadmap use case.
type Backend interface {
	ListItems(ctx context.Context) ([]domain.RoadmapItem, error)
	CreateItem(ctx context.Context, actor domain.Identity, in domain.ItemInput) (*domain.RoadmapItem, error)
	UpdateItem(ctx context.Context, actor domain.Identity, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error)
	SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.Status) (*domain.RoadmapItem, error)
	DeleteItem(ctx context.Context, actor domain.Identity, id string) error
}

// ErrClosed is returned by Run once the session was closed.
var ErrClosed = errors.New("live session closed")

type Session struct {
	actor    domain.Identity
	backend  Backend
	store    *itemstore.Store
	notifier *notifier.Notifier
	projOpts []projector.Option
	onChange func(itemstore.Outcome)
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

type Option func(*Session)

// WithNotifier attaches the notifier consulted for every applied change.
func WithNotifier(n *notifier.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithProjectorOptions sets the locale and time zone used by View.
func WithProjectorOptions(opts ...projector.Option) Option {
	return func(s *Session) { s.projOpts = append(s.projOpts, opts...) }
}

// WithOnChange registers a callback invoked after each remote change was
// applied. It runs on the goroutine calling Run.
func WithOnChange(fn func(itemstore.Outcome)) Option {
	return func(s *Session) { s.onChange = fn }
}

func New(actor domain.Identity, backend Backend, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		actor:   actor,
		backend: backend,
		store:   itemstore.New(logger.Named("itemstore")),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying item store.
func (s *Session) Store() *itemstore.Store {
	return s.store
}

// Load replaces the snapshot with a fresh server fetch.
func (s *Session) Load(ctx context.Context) error {
	items, err := s.backend.ListItems(ctx)
	if err != nil {
		return err
	}
	s.store.Replace(items)
	s.logger.Debug("snapshot loaded", zap.Int("items", len(items)))
	return nil
}

// Run applies messages from in until the channel is closed, ctx is done or
// the session is closed. Malformed messages are logged and dropped.
func (s *Session) Run(ctx context.Context, in <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if s.isClosed() {
				return ErrClosed
			}
			s.Handle(msg)
		}
	}
}

// Handle decodes and applies a single realtime message.
func (s *Session) Handle(msg []byte) (itemstore.Outcome, bool) {
	change, err := realtime.Decode(msg)
	if err != nil {
		s.logger.Warn("dropping malformed realtime message", zap.Error(err))
		return itemstore.Outcome{}, false
	}
	return s.Apply(change), true
}

// Apply merges change into the store and notifies about other members' edits.
func (s *Session) Apply(change realtime.Change) itemstore.Outcome {
	if s.isClosed() {
		return itemstore.Outcome{Kind: change.Type, ItemID: change.ID}
	}
	out := s.store.ApplyRemoteChange(change)
	if out.Stale {
		s.logger.Debug("stale change merged under pending edit", zap.String("item_id", out.ItemID))
	}
	s.notifier.Notify(out, s.actor.UserID)
	if s.onChange != nil {
		s.onChange(out)
	}
	return out
}

// Close stops the session; messages arriving afterwards are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CreateItem creates on the server first; the new item is then placed in the
// store so the realtime insert that follows only confirms it.
func (s *Session) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.RoadmapItem, error) {
	created, err := s.backend.CreateItem(ctx, s.actor, in)
	if err != nil {
		return nil, err
	}
	rev := s.store.UpsertLocal(*created)
	s.store.ConfirmLocal(created.ID, rev, *created)
	return created, nil
}

// SetStatus shows the new status immediately and rolls it back if the server
// refuses it.
func (s *Session) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.RoadmapItem, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError(map[string][]string{"status": {"unknown status"}})
	}
	current, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	current.Status = status
	return s.commit(ctx, current, func(ctx context.Context) (*domain.RoadmapItem, error) {
		return s.backend.SetStatus(ctx, s.actor, id, status)
	})
}

// UpdateItem applies patch locally, then on the server.
func (s *Session) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	patch.Apply(&current)
	return s.commit(ctx, current, func(ctx context.Context) (*domain.RoadmapItem, error) {
		return s.backend.UpdateItem(ctx, s.actor, id, patch)
	})
}

// DeleteItem removes the item locally before asking the server. When the
// server fails for any reason other than the item being gone already, the
// item is put back where it was.
func (s *Session) DeleteItem(ctx context.Context, id string) error {
	previous, existed := s.store.Get(id)
	s.store.Remove(id)

	err := s.backend.DeleteItem(ctx, s.actor, id)
	if err == nil || domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if existed && s.store.Restore(previous) {
		s.logger.Info("optimistic delete rolled back", zap.String("item_id", id), zap.Error(err))
	}
	return err
}

func (s *Session) commit(ctx context.Context, optimistic domain.RoadmapItem, call func(context.Context) (*domain.RoadmapItem, error)) (*domain.RoadmapItem, error) {
	rev := s.store.UpsertLocal(optimistic)
	updated, err := call(ctx)
	if err != nil {
		if s.store.DiscardLocal(optimistic.ID, rev) {
			s.logger.Info("optimistic edit rolled back", zap.String("item_id", optimistic.ID), zap.Error(err))
		}
		return nil, err
	}
	var server domain.RoadmapItem
	if updated != nil {
		server = *updated
	}
	s.store.ConfirmLocal(optimistic.ID, rev, server)
	return updated, nil
}

// View projects the current snapshot.
func (s *Session) View(opts projector.ViewOptions) projector.View {
	return projector.Project(s.store.Snapshot(), opts, s.projOpts...)
}

// Summary counts the current snapshot per status.
func (s *Session) Summary() projector.Summary {
	return projector.Summarize(s.store.Snapshot())
}

// Upcoming lists the next n active or planned items with a start date.
func (s *Session) Upcoming(n int) []domain.RoadmapItem {
	return projector.Upcoming(s.store.Snapshot(), n)
}
