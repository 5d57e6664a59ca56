package live_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/itemstore"
	"github.com/fastygo/roadmap/internal/live"
	"github.com/fastygo/roadmap/internal/notifier"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/internal/realtime"
	"github.com/fastygo/roadmap/internal/testutil"
	"github.com/fastygo/roadmap/usecase/roadmap"
)

var (
	me    = domain.Identity{UserID: "u-me", Email: "me@example.com"}
	other = domain.Identity{UserID: "u-other", Email: "other@example.com"}
)

type recordingSink struct {
	mu    sync.Mutex
	notes []notifier.Notification
}

func (r *recordingSink) Permitted() bool { return true }

func (r *recordingSink) Deliver(n notifier.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recordingSink) all() []notifier.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifier.Notification(nil), r.notes...)
}

type fixture struct {
	store   *testutil.MemStore
	bus     *testutil.Bus
	uc      *roadmap.UseCase
	sink    *recordingSink
	session *live.Session
	inbox   <-chan []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	store.SeedProfile(domain.Profile{ID: me.UserID, Name: "Me"})
	store.SeedProfile(domain.Profile{ID: other.UserID, Name: "Other"})
	bus := testutil.NewBus()
	uc := roadmap.New(store, store.Repos(), bus, nil)
	sink := &recordingSink{}
	session := live.New(me, uc, nil, live.WithNotifier(notifier.New(sink, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	inbox, closeFn, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	require.NoError(t, session.Load(context.Background()))
	return &fixture{store: store, bus: bus, uc: uc, sink: sink, session: session, inbox: inbox}
}

// drain applies every message currently queued on the bus.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	for {
		select {
		case msg := <-f.inbox:
			_, ok := f.session.Handle(msg)
			require.True(t, ok)
		default:
			return
		}
	}
}

func TestEndToEnd_CreateSetStatusRemoteUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.session.CreateItem(ctx, domain.ItemInput{Title: "Tile selection", Status: domain.StatusPlanned})
	require.NoError(t, err)
	assert.Equal(t, []domain.EventType{domain.EventItemCreated}, f.store.EventTypes())
	got, ok := f.session.Store().Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPlanned, got.Status)

	_, err = f.session.SetStatus(ctx, created.ID, domain.StatusActive)
	require.NoError(t, err)
	got, _ = f.session.Store().Get(created.ID)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, []domain.EventType{domain.EventItemCreated, domain.EventStatusChanged}, f.store.EventTypes())

	f.drain(t)
	assert.Equal(t, 1, f.session.Store().Len(), "own insert echo only confirms")
	assert.Empty(t, f.sink.all(), "own changes are not announced")

	done := domain.StatusDone
	later := got.UpdatedAt.Add(time.Minute)
	f.session.Apply(realtime.Change{
		Type:    realtime.Update,
		ID:      created.ID,
		Row:     realtime.ItemRow{Columns: map[string]bool{realtime.ColStatus: true, realtime.ColUpdatedAt: true}, Status: &done, UpdatedAt: &later},
		ActorID: other.UserID,
	})
	got, _ = f.session.Store().Get(created.ID)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Equal(t, "Tile selection", got.Title)

	notes := f.sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, notifier.CategoryStatusChanged, notes[0].Category)
}

func TestDeletion_RemoteDeleteAfterLocalIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.SeedItem(domain.RoadmapItem{ID: "r5", Title: "Bathroom", Status: domain.StatusActive})
	f.store.SeedItem(domain.RoadmapItem{ID: "r6", Title: "Hall", Status: domain.StatusPlanned})
	ctx := context.Background()
	require.NoError(t, f.session.Load(ctx))

	require.NoError(t, f.session.DeleteItem(ctx, "r5"))
	_, ok := f.session.Store().Get("r5")
	assert.False(t, ok)
	before := f.session.Store().Snapshot()

	f.drain(t)
	out := f.session.Apply(realtime.Change{Type: realtime.Delete, ID: "r5", ActorID: other.UserID})
	assert.False(t, out.Applied)
	assert.Equal(t, before, f.session.Store().Snapshot())
	assert.Empty(t, f.sink.all())
}

func TestRemoteChangesFromOthersNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateItem(ctx, other, domain.ItemInput{Title: "Roof"})
	require.NoError(t, err)
	f.drain(t)

	require.Equal(t, 1, f.session.Store().Len())
	notes := f.sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, notifier.CategoryCreated, notes[0].Category)
	assert.Equal(t, "Roof", notes[0].Body)
}

func TestRun_ConsumesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	in := make(chan []byte, 4)
	applied := make(chan itemstore.Outcome, 4)
	session := live.New(me, f.uc, nil, live.WithOnChange(func(o itemstore.Outcome) { applied <- o }))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- session.Run(ctx, in) }()

	payload, err := realtime.Encode(realtime.Change{
		Type: realtime.Insert,
		ID:   "r1",
		Row:  realtime.RowFromItem(domain.RoadmapItem{ID: "r1", Title: "Paint", Status: domain.StatusPlanned}),
	})
	require.NoError(t, err)
	in <- []byte(`{"eventType":"UPDATE","new":{}}`)
	in <- payload

	select {
	case out := <-applied:
		assert.Equal(t, "r1", out.ItemID)
	case <-time.After(2 * time.Second):
		t.Fatal("change was not applied")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 1, session.Store().Len())
}

func TestRun_ClosedChannelEnds(t *testing.T) {
	f := newFixture(t)
	in := make(chan []byte)
	close(in)

	assert.NoError(t, f.session.Run(context.Background(), in))
}

func TestClose_DiscardsLaterEvents(t *testing.T) {
	f := newFixture(t)
	f.session.Close()

	out := f.session.Apply(realtime.Change{
		Type: realtime.Insert,
		ID:   "r1",
		Row:  realtime.RowFromItem(domain.RoadmapItem{Title: "Paint"}),
	})
	assert.False(t, out.Applied)
	assert.Zero(t, f.session.Store().Len())

	in := make(chan []byte, 1)
	in <- []byte(`{}`)
	assert.ErrorIs(t, f.session.Run(context.Background(), in), live.ErrClosed)
}

type failingBackend struct {
	live.Backend
	err error
}

func (b failingBackend) SetStatus(context.Context, domain.Identity, string, domain.Status) (*domain.RoadmapItem, error) {
	return nil, b.err
}

func (b failingBackend) UpdateItem(context.Context, domain.Identity, string, domain.ItemPatch) (*domain.RoadmapItem, error) {
	return nil, b.err
}

func (b failingBackend) DeleteItem(context.Context, domain.Identity, string) error {
	return b.err
}

func TestOptimisticEdits_RollBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.store.SeedItem(domain.RoadmapItem{ID: "r1", Title: "Kitchen", Status: domain.StatusPlanned, Tags: []string{"inside"}})
	ctx := context.Background()

	backendErr := domain.Internal("failed to change status", errors.New("connection refused"))
	session := live.New(me, failingBackend{Backend: f.uc, err: backendErr}, nil)
	require.NoError(t, session.Load(ctx))

	_, err := session.SetStatus(ctx, "r1", domain.StatusDone)
	require.ErrorIs(t, err, backendErr)
	got, _ := session.Store().Get("r1")
	assert.Equal(t, domain.StatusPlanned, got.Status)
	assert.False(t, session.Store().Pending("r1"))

	title := "Kitchen v2"
	_, err = session.UpdateItem(ctx, "r1", domain.ItemPatch{Title: &title})
	require.Error(t, err)
	got, _ = session.Store().Get("r1")
	assert.Equal(t, "Kitchen", got.Title)

	require.Error(t, session.DeleteItem(ctx, "r1"))
	got, ok := session.Store().Get("r1")
	require.True(t, ok)
	assert.Equal(t, []string{"inside"}, got.Tags)
}

func TestOptimisticEdits_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.session.SetStatus(ctx, "r1", "someday")
	assert.Contains(t, domain.FieldErrors(err), "status")

	_, err = f.session.SetStatus(ctx, "missing", domain.StatusDone)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	_, err = f.session.UpdateItem(ctx, "missing", domain.ItemPatch{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestView(t *testing.T) {
	f := newFixture(t)
	march := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f.store.SeedItem(domain.RoadmapItem{ID: "r1", Title: "Kitchen", Status: domain.StatusDone, StartDate: &march})
	f.store.SeedItem(domain.RoadmapItem{ID: "r2", Title: "Garden", Status: domain.StatusActive, StartDate: &march})
	require.NoError(t, f.session.Load(context.Background()))

	opts := projector.DefaultViewOptions()
	opts.Mode = projector.ModeKanban
	view := f.session.View(opts)
	require.Len(t, view.Columns, 4)
	assert.Len(t, view.Columns[1].Items, 1)
	assert.Len(t, view.Columns[3].Items, 1)

	summary := f.session.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 50, summary.PercentDone)

	upcoming := f.session.Upcoming(4)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "r2", upcoming[0].ID)
}

// echoingBackend runs before ahead of each status change, standing in for
// realtime traffic that lands while the request is in flight.
type echoingBackend struct {
	live.Backend
	before func()
}

func (b *echoingBackend) SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.Status) (*domain.RoadmapItem, error) {
	if b.before != nil {
		b.before()
	}
	return b.Backend.SetStatus(ctx, actor, id, status)
}

// deliver hands every queued message to session.
func deliver(session *live.Session, inbox <-chan []byte) {
	for {
		select {
		case msg := <-inbox:
			session.Handle(msg)
		default:
			return
		}
	}
}

func TestLateEchoDoesNotOverwriteNewerEdit(t *testing.T) {
	f := newFixture(t)
	f.store.SeedItem(domain.RoadmapItem{ID: "r1", Title: "Kitchen", Status: domain.StatusPlanned})
	ctx := context.Background()

	backend := &echoingBackend{Backend: f.uc}
	session := live.New(me, backend, nil)
	require.NoError(t, session.Load(ctx))

	first, err := session.SetStatus(ctx, "r1", domain.StatusActive)
	require.NoError(t, err)
	got, _ := session.Store().Get("r1")
	assert.Equal(t, first.UpdatedAt, got.UpdatedAt, "server stamp is kept")

	// The echo of the first change arrives while the second is in flight.
	backend.before = func() { deliver(session, f.inbox) }
	_, err = session.SetStatus(ctx, "r1", domain.StatusDone)
	require.NoError(t, err)

	got, _ = session.Store().Get("r1")
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.False(t, session.Store().Pending("r1"))

	backend.before = nil
	deliver(session, f.inbox)
	got, _ = session.Store().Get("r1")
	assert.Equal(t, domain.StatusDone, got.Status)
}

func TestDeleteRollbackKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.store.SeedItem(domain.RoadmapItem{ID: "r1", Title: "Hall", Status: domain.StatusPlanned})
	f.store.SeedItem(domain.RoadmapItem{ID: "r2", Title: "Kitchen", Status: domain.StatusPlanned})
	f.store.SeedItem(domain.RoadmapItem{ID: "r3", Title: "Garden", Status: domain.StatusPlanned})
	ctx := context.Background()

	session := live.New(me, failingBackend{Backend: f.uc, err: errors.New("timeout")}, nil)
	require.NoError(t, session.Load(ctx))
	before := session.Store().Snapshot()

	require.Error(t, session.DeleteItem(ctx, "r2"))
	assert.Equal(t, before, session.Store().Snapshot())
}
