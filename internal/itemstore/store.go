// Package itemstore holds the in-memory roadmap item snapshot consumed by the
// view layer and reconciles optimistic local writes with realtime changes.
package itemstore

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/realtime"
)

// Store is the single source of truth for the view layer. Every mutation
// publishes a fresh slice; slices returned by Snapshot are never written again.
type Store struct {
	mu sync.Mutex

	items   []domain.RoadmapItem
	index   map[string]int
	pending map[string]*pending
	revs    map[string]uint64
	deleted map[string]tombstone
	graves  []grave
	burials uint64
	version uint64

	logger *zap.Logger
}

// pending is an optimistic write that has not been confirmed yet.
type pending struct {
	rev       uint64
	columns   map[string]bool
	overlay   domain.RoadmapItem
	base      domain.RoadmapItem
	existed   bool
	baseStamp time.Time
}

// maxTombstones bounds how many deleted ids are remembered for ignoring late
// inserts. The oldest are forgotten first.
const maxTombstones = 512

// tombstone remembers where a deleted item sat.
type tombstone struct {
	pos int
	seq uint64
}

// grave records burial order; entries whose seq no longer matches the map
// are dead.
type grave struct {
	id  string
	seq uint64
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		index:   make(map[string]int),
		pending: make(map[string]*pending),
		revs:    make(map[string]uint64),
		deleted: make(map[string]tombstone),
		logger:  logger,
	}
}

// Replace atomically installs a full snapshot from a server fetch. Duplicate
// ids collapse onto the first position with the last values. Outstanding
// optimistic state and delete tombstones are dropped.
func (s *Store) Replace(items []domain.RoadmapItem) {
	next := make([]domain.RoadmapItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.ID == "" {
			s.logger.Warn("dropping item without id from fetch")
			continue
		}
		if pos, ok := index[it.ID]; ok {
			next[pos] = it.Clone()
			continue
		}
		index[it.ID] = len(next)
		next = append(next, it.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	s.index = index
	s.pending = make(map[string]*pending)
	s.deleted = make(map[string]tombstone)
	s.graves = nil
	s.version++
}

// Snapshot returns the current ordered items. Callers must treat it as read-only.
func (s *Store) Snapshot() []domain.RoadmapItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Version increases with every mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (domain.RoadmapItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok {
		return domain.RoadmapItem{}, false
	}
	return s.items[pos].Clone(), true
}

// Pending reports whether id has an unconfirmed optimistic write.
func (s *Store) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// UpsertLocal applies an optimistic write and returns its local revision.
// Inserting an id that is already present replaces it in place.
func (s *Store) UpsertLocal(item domain.RoadmapItem) uint64 {
	if item.ID == "" {
		return 0
	}
	item = item.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.revs[item.ID]++
	rev := s.revs[item.ID]

	pos, exists := s.index[item.ID]
	var current domain.RoadmapItem
	if exists {
		current = s.items[pos]
	}

	p, ok := s.pending[item.ID]
	if !ok {
		p = &pending{
			columns:   make(map[string]bool),
			base:      current.Clone(),
			existed:   exists,
			baseStamp: current.UpdatedAt,
		}
		s.pending[item.ID] = p
	}
	p.rev = rev
	p.overlay = item.Clone()
	for _, col := range changedColumns(current, item, exists) {
		p.columns[col] = true
	}

	delete(s.deleted, item.ID)
	if exists {
		s.replaceAt(pos, item)
	} else {
		s.appendItem(item)
	}
	return rev
}

// ConfirmLocal marks the optimistic write rev as accepted and merges server,
// the item as the server stored it, unless a newer remote change already
// landed. When a newer local write is still in flight its columns stay on top
// and its base moves up to the server copy, so a late echo of the confirmed
// write counts as stale.
func (s *Store) ConfirmLocal(id string, rev uint64, server domain.RoadmapItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.index[id]
	p, inFlight := s.pending[id]
	var known time.Time
	switch {
	case inFlight:
		known = p.baseStamp
	case exists:
		known = s.items[pos].UpdatedAt
	}
	if inFlight && p.rev == rev {
		delete(s.pending, id)
		inFlight = false
	}
	if server.ID != id || !exists || known.After(server.UpdatedAt) {
		return
	}

	merged := server.Clone()
	if inFlight {
		p.base = server.Clone()
		p.baseStamp = server.UpdatedAt
		rowFor(p.overlay, p.columns).MergeInto(&merged)
	}
	s.replaceAt(pos, merged)
}

// DiscardLocal reverts the optimistic write rev to the last known server
// value. It reports false when a newer local write superseded rev or nothing
// is pending.
func (s *Store) DiscardLocal(id string, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok || p.rev != rev {
		return false
	}
	delete(s.pending, id)

	pos, exists := s.index[id]
	switch {
	case p.existed && exists:
		restored := s.items[pos].Clone()
		rowFor(p.base, p.columns).MergeInto(&restored)
		restored.UpdatedAt = p.base.UpdatedAt
		s.replaceAt(pos, restored)
	case p.existed && !exists:
		s.appendItem(p.base.Clone())
	case !p.existed && exists:
		s.removeAt(pos)
	}
	return true
}

// Remove deletes id if present. Removing an absent id is a no-op, which keeps
// an optimistic delete followed by a realtime delete idempotent.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, removed := s.removeLocked(id)
	return removed
}

// Restore puts a deleted item back at the position it had, or at the end
// when that position is no longer known. It reports false if the id is
// present again.
func (s *Store) Restore(item domain.RoadmapItem) bool {
	if item.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[item.ID]; exists {
		return false
	}
	pos := len(s.items)
	if t, ok := s.deleted[item.ID]; ok {
		delete(s.deleted, item.ID)
		if t.pos >= 0 && t.pos < pos {
			pos = t.pos
		}
	}
	s.insertAt(pos, item.Clone())
	return true
}

// Tombstones returns how many deleted ids are remembered.
func (s *Store) Tombstones() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deleted)
}

func (s *Store) removeLocked(id string) (domain.RoadmapItem, bool) {
	delete(s.pending, id)
	pos, ok := s.index[id]
	if !ok {
		s.bury(id, -1)
		return domain.RoadmapItem{}, false
	}
	gone := s.items[pos]
	s.bury(id, pos)
	s.removeAt(pos)
	return gone, true
}

// bury records a tombstone for id and forgets the oldest ones beyond
// maxTombstones.
func (s *Store) bury(id string, pos int) {
	s.burials++
	s.deleted[id] = tombstone{pos: pos, seq: s.burials}
	s.graves = append(s.graves, grave{id: id, seq: s.burials})

	for len(s.deleted) > maxTombstones && len(s.graves) > 0 {
		g := s.graves[0]
		s.graves = s.graves[1:]
		if t, ok := s.deleted[g.id]; ok && t.seq == g.seq {
			delete(s.deleted, g.id)
		}
	}
	if len(s.graves) > 2*maxTombstones {
		live := make([]grave, 0, len(s.deleted))
		for _, g := range s.graves {
			if t, ok := s.deleted[g.id]; ok && t.seq == g.seq {
				live = append(live, g)
			}
		}
		s.graves = live
	}
}

// replaceAt leaves the snapshot and version alone when item carries nothing new.
func (s *Store) replaceAt(pos int, item domain.RoadmapItem) {
	if sameItem(s.items[pos], item) {
		return
	}
	next := make([]domain.RoadmapItem, len(s.items))
	copy(next, s.items)
	next[pos] = item
	s.items = next
	s.version++
}

func (s *Store) appendItem(item domain.RoadmapItem) {
	next := make([]domain.RoadmapItem, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, item)
	s.index[item.ID] = len(next) - 1
	s.items = next
	s.version++
}

func (s *Store) insertAt(pos int, item domain.RoadmapItem) {
	next := make([]domain.RoadmapItem, 0, len(s.items)+1)
	next = append(next, s.items[:pos]...)
	next = append(next, item)
	next = append(next, s.items[pos:]...)
	for i := pos; i < len(next); i++ {
		s.index[next[i].ID] = i
	}
	s.items = next
	s.version++
}

func (s *Store) removeAt(pos int) {
	id := s.items[pos].ID
	next := make([]domain.RoadmapItem, 0, len(s.items)-1)
	next = append(next, s.items[:pos]...)
	next = append(next, s.items[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(next); i++ {
		s.index[next[i].ID] = i
	}
	s.items = next
	s.version++
}

// changedColumns lists the editable columns that differ between before and after.
func changedColumns(before, after domain.RoadmapItem, existed bool) []string {
	if !existed {
		return []string{
			realtime.ColTitle, realtime.ColDescription, realtime.ColStartDate,
			realtime.ColEndDate, realtime.ColStatus, realtime.ColTags,
		}
	}
	var cols []string
	if before.Title != after.Title {
		cols = append(cols, realtime.ColTitle)
	}
	if before.Description != after.Description {
		cols = append(cols, realtime.ColDescription)
	}
	if !sameTime(before.StartDate, after.StartDate) {
		cols = append(cols, realtime.ColStartDate)
	}
	if !sameTime(before.EndDate, after.EndDate) {
		cols = append(cols, realtime.ColEndDate)
	}
	if before.Status != after.Status {
		cols = append(cols, realtime.ColStatus)
	}
	if !sameTags(before.Tags, after.Tags) {
		cols = append(cols, realtime.ColTags)
	}
	return cols
}

// rowFor builds a partial row carrying only cols from item.
func rowFor(item domain.RoadmapItem, cols map[string]bool) realtime.ItemRow {
	list := make([]string, 0, len(cols))
	for c := range cols {
		list = append(list, c)
	}
	if len(list) == 0 {
		return realtime.ItemRow{}
	}
	row := realtime.RowFromItem(item, list...)
	delete(row.Columns, realtime.ColUpdatedAt)
	return row
}

func sameItem(a, b domain.RoadmapItem) bool {
	if len(changedColumns(a, b, true)) > 0 {
		return false
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) || !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	ca, cb := a.CreatedBy, b.CreatedBy
	return ca.ID == cb.ID && ca.Name == cb.Name && ca.Surname == cb.Surname &&
		ca.AvatarURL == cb.AvatarURL
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
