// Package testutil provides in-memory stand-ins for the Postgres repositories,
// the Redis change bus and the change publisher.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

// BaseTime is the clock origin of a MemStore. Every write advances the clock
// by one second so created_at ordering is deterministic.
var BaseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// MemStore keeps all tables in memory. WithinTx serializes transactions and
// restores the previous state when fn fails.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq      int
	items    []domain.RoadmapItem
	comments []domain.Comment
	events   []domain.Event
	profiles []domain.Profile
	invites  []domain.Invite

	failures map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{failures: map[string]error{}}
}

// Fail makes the named operation (for example "events.append") return err
// until cleared with a nil err.
func (s *MemStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemStore) Repos() repository.Repos {
	return repository.Repos{
		Items:    memItems{s},
		Comments: memComments{s},
		Events:   memEvents{s},
		Profiles: memProfiles{s},
		Invites:  memInvites{s},
	}
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := s.save()
	if err := fn(ctx, s.Repos()); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

// Now returns the current store clock.
func (s *MemStore) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BaseTime.Add(time.Duration(s.seq) * time.Second)
}

// SeedProfile stores p as is.
func (s *MemStore) SeedProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.tick()
	}
	s.profiles = append(s.profiles, p)
}

// SeedItem stores item as is, keeping its id.
func (s *MemStore) SeedItem(item domain.RoadmapItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.tick()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	s.items = append(s.items, item.Clone())
}

// SeedInvite stores inv as is.
func (s *MemStore) SeedInvite(inv domain.Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = s.nextID("inv")
	}
	s.invites = append(s.invites, inv)
}

// Events returns all appended events in append order.
func (s *MemStore) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventTypes lists the types of all appended events in append order.
func (s *MemStore) EventTypes() []domain.EventType {
	events := s.Events()
	out := make([]domain.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

type snapshot struct {
	seq      int
	items    []domain.RoadmapItem
	comments []domain.Comment
	events   []domain.Event
	profiles []domain.Profile
	invites  []domain.Invite
}

func (s *MemStore) save() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.RoadmapItem, len(s.items))
	for i, it := range s.items {
		items[i] = it.Clone()
	}
	return snapshot{
		seq:      s.seq,
		items:    items,
		comments: append([]domain.Comment(nil), s.comments...),
		events:   append([]domain.Event(nil), s.events...),
		profiles: append([]domain.Profile(nil), s.profiles...),
		invites:  append([]domain.Invite(nil), s.invites...),
	}
}

func (s *MemStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.items = snap.items
	s.comments = snap.comments
	s.events = snap.events
	s.profiles = snap.profiles
	s.invites = snap.invites
}

// tick advances the clock; callers hold mu.
func (s *MemStore) tick() time.Time {
	s.seq++
	return BaseTime.Add(time.Duration(s.seq) * time.Second)
}

func (s *MemStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *MemStore) failure(op string) error {
	return s.failures[op]
}

func (s *MemStore) profileLocked(id string) *domain.Profile {
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			p := s.profiles[i]
			return &p
		}
	}
	return nil
}

func (s *MemStore) withCreator(item domain.RoadmapItem) domain.RoadmapItem {
	out := item.Clone()
	out.CreatedBy = domain.DisplayProfile(s.profileLocked(item.CreatedBy.ID), item.CreatedBy.ID)
	return out
}

func (s *MemStore) itemIndex(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

type memItems struct{ s *MemStore }

func (r memItems) List(context.Context) ([]domain.RoadmapItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("items.list"); err != nil {
		return nil, err
	}
	out := make([]domain.RoadmapItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, s.withCreator(it))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartDate == nil && b.StartDate == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.StartDate == nil:
			return false
		case b.StartDate == nil:
			return true
		case !a.StartDate.Equal(*b.StartDate):
			return a.StartDate.Before(*b.StartDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
	return out, nil
}

func (r memItems) GetByID(_ context.Context, id string) (*domain.RoadmapItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.itemIndex(id)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	out := s.withCreator(s.items[idx])
	return &out, nil
}

func (r memItems) Create(_ context.Context, item *domain.RoadmapItem) (*domain.RoadmapItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("items.create"); err != nil {
		return nil, err
	}
	stored := item.Clone()
	if stored.ID == "" {
		stored.ID = s.nextID("item")
	}
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	stored.CreatedAt = s.tick()
	stored.UpdatedAt = stored.CreatedAt
	s.items = append(s.items, stored)
	out := s.withCreator(stored)
	return &out, nil
}

func (r memItems) Update(_ context.Context, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("items.update"); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoChanges
	}
	idx := s.itemIndex(id)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	patch.Apply(&s.items[idx])
	s.items[idx].UpdatedAt = s.tick()
	out := s.withCreator(s.items[idx])
	return &out, nil
}

func (r memItems) SetStatus(_ context.Context, id string, status domain.Status) (*domain.RoadmapItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("items.set_status"); err != nil {
		return nil, err
	}
	idx := s.itemIndex(id)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	s.items[idx].Status = status
	s.items[idx].UpdatedAt = s.tick()
	out := s.withCreator(s.items[idx])
	return &out, nil
}

func (r memItems) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("items.delete"); err != nil {
		return err
	}
	idx := s.itemIndex(id)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	kept := s.comments[:0]
	for _, c := range s.comments {
		if c.ItemID != id {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	return nil
}

type memComments struct{ s *MemStore }

func (r memComments) ListForItem(_ context.Context, itemID string) ([]domain.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Comment{}
	for _, c := range s.comments {
		if c.ItemID == itemID {
			c.Author = domain.DisplayProfile(s.profileLocked(c.Author.ID), c.Author.ID)
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memComments) Create(_ context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("comments.create"); err != nil {
		return nil, err
	}
	if s.itemIndex(comment.ItemID) < 0 {
		return nil, domain.ErrItemNotFound
	}
	stored := *comment
	if stored.ID == "" {
		stored.ID = s.nextID("comment")
	}
	stored.CreatedAt = s.tick()
	s.comments = append(s.comments, stored)
	return &stored, nil
}

func (r memComments) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			return nil
		}
	}
	return domain.ErrCommentNotFound
}

type memEvents struct{ s *MemStore }

func (r memEvents) Append(_ context.Context, event *domain.Event) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("events.append"); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = s.nextID("event")
	}
	event.CreatedAt = s.tick()
	s.events = append(s.events, *event)
	return nil
}

func (r memEvents) Recent(_ context.Context, limit int) ([]domain.Event, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("events.recent"); err != nil {
		return nil, err
	}
	out := []domain.Event{}
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := s.events[i]
		ev.Actor = domain.DisplayProfile(s.profileLocked(ev.ActorID), ev.ActorID)
		out = append(out, ev)
	}
	return out, nil
}

type memProfiles struct{ s *MemStore }

func (r memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("profiles.get"); err != nil {
		return nil, err
	}
	if p := s.profileLocked(id); p != nil {
		return p, nil
	}
	return nil, domain.ErrProfileNotFound
}

func (r memProfiles) List(context.Context) ([]domain.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Profile(nil), s.profiles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memProfiles) Create(_ context.Context, profile *domain.Profile) (*domain.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("profiles.create"); err != nil {
		return nil, err
	}
	if existing := s.profileLocked(profile.ID); existing != nil {
		return existing, nil
	}
	stored := *profile
	stored.CreatedAt = s.tick()
	s.profiles = append(s.profiles, stored)
	return &stored, nil
}

func (r memProfiles) UpdateRole(_ context.Context, id string, role domain.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			s.profiles[i].Role = role
			return nil
		}
	}
	return domain.ErrProfileNotFound
}

type memInvites struct{ s *MemStore }

func (r memInvites) Create(_ context.Context, invite *domain.Invite) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.Token == invite.Token {
			return domain.NewError(domain.ErrCodeConflict, "invite token collision")
		}
	}
	if invite.ID == "" {
		invite.ID = s.nextID("inv")
	}
	invite.CreatedAt = s.tick()
	s.invites = append(s.invites, *invite)
	return nil
}

func (r memInvites) List(context.Context) ([]domain.Invite, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Invite(nil), s.invites...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memInvites) FindPending(_ context.Context, email string, now time.Time) (*domain.Invite, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.invites) - 1; i >= 0; i-- {
		inv := s.invites[i]
		if inv.Email == email && inv.State(now) == domain.InvitePending {
			return &inv, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (r memInvites) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.Token == token {
			return &inv, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (r memInvites) MarkAccepted(_ context.Context, id string, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invites {
		if s.invites[i].ID != id {
			continue
		}
		if s.invites[i].AcceptedAt != nil {
			return domain.ErrInviteNotPending
		}
		accepted := at
		s.invites[i].AcceptedAt = &accepted
		return nil
	}
	return domain.ErrInviteNotFound
}

func (r memInvites) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, inv := range s.invites {
		if inv.ID == id {
			s.invites = append(s.invites[:i], s.invites[i+1:]...)
			return nil
		}
	}
	return domain.ErrInviteNotFound
}

var _ repository.Transactor = (*MemStore)(nil)
