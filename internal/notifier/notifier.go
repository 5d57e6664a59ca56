// Package notifier turns reconciled realtime changes made by other family
// members into user-facing notifications.
package notifier

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/internal/itemstore"
	"github.com/fastygo/roadmap/internal/realtime"
)

// DefaultDedupWindow collapses re-deliveries of the same tag.
const DefaultDedupWindow = 5 * time.Second

// Category classifies a notification.
type Category string

const (
	CategoryCreated       Category = "created"
	CategoryUpdated       Category = "updated"
	CategoryStatusChanged Category = "status_changed"
	CategoryDeleted       Category = "deleted"
)

var titles = map[Category]string{
	CategoryCreated:       "✨ Nieuw item",
	CategoryUpdated:       "📝 Item bijgewerkt",
	CategoryStatusChanged: "🔄 Status gewijzigd",
	CategoryDeleted:       "🗑️ Item verwijderd",
}

// Notification is what a Sink displays.
type Notification struct {
	Category Category
	Title    string
	Body     string
	Tag      string
	At       time.Time
}

// Sink displays notifications. Permitted reports whether the user allowed
// notifications; when it returns false nothing is delivered.
type Sink interface {
	Permitted() bool
	Deliver(n Notification) error
}

// Notifier decides whether an outcome deserves a notification.
type Notifier struct {
	sink   Sink
	logger *zap.Logger
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDedupWindow overrides DefaultDedupWindow. Zero disables deduplication.
func WithDedupWindow(d time.Duration) Option {
	return func(n *Notifier) { n.window = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a Notifier. A nil sink makes Notify a no-op.
func New(sink Sink, logger *zap.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		sink:   sink,
		logger: logger,
		window: DefaultDedupWindow,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify emits a notification for out unless the current user caused it, the
// change did not alter the store, no title is known, the sink is missing or
// not permitted, or the same tag was delivered within the dedup window. It
// reports whether a notification was delivered. Delivery errors are logged.
func (n *Notifier) Notify(out itemstore.Outcome, currentUserID string) bool {
	if n == nil || n.sink == nil || !out.Applied {
		return false
	}
	if currentUserID == "" || out.ActorID == currentUserID {
		return false
	}
	if strings.TrimSpace(out.Title) == "" {
		return false
	}

	note, ok := build(out)
	if !ok {
		return false
	}
	if !n.sink.Permitted() {
		return false
	}

	now := n.now()
	if !n.claim(note.Tag, now) {
		n.logger.Debug("duplicate notification suppressed", zap.String("tag", note.Tag))
		return false
	}
	note.At = now

	if err := n.sink.Deliver(note); err != nil {
		n.logger.Warn("notification delivery failed", zap.String("tag", note.Tag), zap.Error(err))
		return false
	}
	return true
}

func (n *Notifier) claim(tag string, now time.Time) bool {
	if n.window <= 0 {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for t, at := range n.seen {
		if now.Sub(at) >= n.window {
			delete(n.seen, t)
		}
	}
	if _, dup := n.seen[tag]; dup {
		return false
	}
	n.seen[tag] = now
	return true
}

func build(out itemstore.Outcome) (Notification, bool) {
	var cat Category
	switch out.Kind {
	case realtime.Insert:
		cat = CategoryCreated
	case realtime.Update:
		cat = CategoryUpdated
		if out.StatusChanged {
			cat = CategoryStatusChanged
		}
	case realtime.Delete:
		cat = CategoryDeleted
	default:
		return Notification{}, false
	}

	body := out.Title
	if cat == CategoryStatusChanged && out.Status != "" {
		body = out.Title + " → " + out.Status.Label()
	}
	return Notification{
		Category: cat,
		Title:    titles[cat],
		Body:     body,
		Tag:      Tag(out.Kind, out.ItemID),
	}, true
}

// Tag is the dedup key for a change kind and item id, e.g. "update-r1".
func Tag(kind realtime.ChangeType, itemID string) string {
	return strings.ToLower(string(kind)) + "-" + itemID
}
