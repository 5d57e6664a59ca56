package itemstore

import (
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/realtime"
)

// Outcome describes what a remote change did to the store.
type Outcome struct {
	Kind          realtime.ChangeType
	ItemID        string
	Title         string
	ActorID       string
	Applied       bool
	Stale         bool
	StatusChanged bool
	Status        domain.Status
}

// ApplyRemoteChange merges an authoritative realtime change into the store.
//
// Inserts confirm an existing entry in place or append a new one. Updates
// merge only the columns carried by the row; unknown ids are ignored. Deletes
// are idempotent and report the title the item had before removal. An update
// that is not newer than the base of an outstanding optimistic write is stale:
// it is merged and the optimistic columns are laid back on top.
func (s *Store) ApplyRemoteChange(change realtime.Change) Outcome {
	out := Outcome{Kind: change.Type, ItemID: change.ID, ActorID: change.ActorID}
	if change.ID == "" {
		s.logger.Warn("dropping realtime change without id", zap.String("type", string(change.Type)))
		return out
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch change.Type {
	case realtime.Insert:
		s.applyInsert(change, &out)
	case realtime.Update:
		s.applyUpdate(change, &out)
	case realtime.Delete:
		if gone, ok := s.removeLocked(change.ID); ok {
			out.Applied = true
			out.Title = gone.Title
		}
	default:
		s.logger.Warn("dropping realtime change with unknown type",
			zap.String("type", string(change.Type)),
			zap.String("item_id", change.ID))
	}
	return out
}

func (s *Store) applyInsert(change realtime.Change, out *Outcome) {
	if _, gone := s.deleted[change.ID]; gone {
		s.logger.Debug("ignoring insert for deleted item", zap.String("item_id", change.ID))
		return
	}

	pos, exists := s.index[change.ID]
	if !exists {
		item := change.Row.ToItem(change.ID)
		s.appendItem(item)
		out.Applied = true
		out.Title = item.Title
		out.Status = item.Status
		return
	}

	current := s.items[pos]
	merged := current.Clone()
	change.Row.MergeInto(&merged)
	merged = s.settlePending(change, current, merged, out)
	s.replaceAt(pos, merged)
	out.Applied = true
	out.Title = merged.Title
	out.Status = merged.Status
}

func (s *Store) applyUpdate(change realtime.Change, out *Outcome) {
	pos, exists := s.index[change.ID]
	if !exists {
		s.logger.Debug("ignoring update for unknown item", zap.String("item_id", change.ID))
		return
	}

	current := s.items[pos]
	merged := current.Clone()
	change.Row.MergeInto(&merged)
	if change.Row.Has(realtime.ColStatus) && change.Row.Status != nil && *change.Row.Status != current.Status {
		out.StatusChanged = true
	}
	merged = s.settlePending(change, current, merged, out)
	s.replaceAt(pos, merged)
	out.Applied = true
	out.Title = merged.Title
	out.Status = merged.Status
}

// settlePending reconciles merged with any optimistic write on the same item.
func (s *Store) settlePending(change realtime.Change, current, merged domain.RoadmapItem, out *Outcome) domain.RoadmapItem {
	p, ok := s.pending[change.ID]
	if !ok {
		return merged
	}

	remote := change.Row.UpdatedAt
	if remote != nil && !p.baseStamp.IsZero() && !remote.After(p.baseStamp) {
		out.Stale = true
		out.StatusChanged = false
		rowFor(p.overlay, p.columns).MergeInto(&merged)
		if current.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = current.UpdatedAt
		}
		return merged
	}

	for col := range change.Row.Columns {
		delete(p.columns, col)
	}
	change.Row.MergeInto(&p.base)
	if remote != nil {
		p.baseStamp = *remote
	}
	if len(p.columns) == 0 {
		delete(s.pending, change.ID)
	}
	return merged
}
