// Package realtime defines the change messages delivered for the roadmap_items
// table and the explicit mapping between their wire rows and domain items.
package realtime

import (
	"time"

	"github.com/fastygo/roadmap/domain"
)

// ChangeType is the kind of row change.
type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

func (t ChangeType) Valid() bool {
	return t == Insert || t == Update || t == Delete
}

// Item columns understood by the mapper.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColStartDate   = "start_date"
	ColEndDate     = "end_date"
	ColStatus      = "status"
	ColTags        = "tags"
	ColCreatedBy   = "created_by"
	ColCreator     = "creator"
	ColCreatedAt   = "created_at"
	ColUpdatedAt   = "updated_at"
)

// Change is a decoded realtime event.
type Change struct {
	Type    ChangeType
	ID      string
	Row     ItemRow
	ActorID string
}

// ItemRow is a possibly partial roadmap_items row. Columns records which
// columns were present on the wire; a present nullable column with a nil
// value means the column was set to null.
type ItemRow struct {
	Columns     map[string]bool
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *domain.Status
	Tags        []string
	CreatedBy   string
	Creator     *domain.Profile
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Has reports whether col was present.
func (r ItemRow) Has(col string) bool {
	return r.Columns[col]
}

// Empty reports whether no column was present.
func (r ItemRow) Empty() bool {
	return len(r.Columns) == 0
}

func (r *ItemRow) mark(col string) {
	if r.Columns == nil {
		r.Columns = make(map[string]bool)
	}
	r.Columns[col] = true
}

// RowFromItem builds a row from item. With no columns given every column is included.
func RowFromItem(item domain.RoadmapItem, columns ...string) ItemRow {
	all := len(columns) == 0
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[c] = true
	}
	include := func(col string) bool { return all || want[col] }

	c := item.Clone()
	var row ItemRow
	if include(ColTitle) {
		row.Title = &c.Title
		row.mark(ColTitle)
	}
	if include(ColDescription) {
		row.Description = &c.Description
		row.mark(ColDescription)
	}
	if include(ColStartDate) {
		row.StartDate = c.StartDate
		row.mark(ColStartDate)
	}
	if include(ColEndDate) {
		row.EndDate = c.EndDate
		row.mark(ColEndDate)
	}
	if include(ColStatus) {
		row.Status = &c.Status
		row.mark(ColStatus)
	}
	if include(ColTags) {
		row.Tags = c.Tags
		if row.Tags == nil {
			row.Tags = []string{}
		}
		row.mark(ColTags)
	}
	if all || want[ColCreatedBy] {
		row.CreatedBy = c.CreatedBy.ID
		row.mark(ColCreatedBy)
		creator := c.CreatedBy
		row.Creator = &creator
		row.mark(ColCreator)
	}
	if all || want[ColCreatedAt] {
		if !c.CreatedAt.IsZero() {
			row.CreatedAt = &c.CreatedAt
			row.mark(ColCreatedAt)
		}
	}
	// updated_at always travels so receivers can order versions.
	if !c.UpdatedAt.IsZero() {
		row.UpdatedAt = &c.UpdatedAt
		row.mark(ColUpdatedAt)
	}
	return row
}

// MergeInto copies the present columns onto item. Columns not in the row are
// left untouched.
func (r ItemRow) MergeInto(item *domain.RoadmapItem) {
	if r.Has(ColTitle) && r.Title != nil {
		item.Title = *r.Title
	}
	if r.Has(ColDescription) && r.Description != nil {
		item.Description = *r.Description
	}
	if r.Has(ColStartDate) {
		item.StartDate = copyTime(r.StartDate)
	}
	if r.Has(ColEndDate) {
		item.EndDate = copyTime(r.EndDate)
	}
	if r.Has(ColStatus) && r.Status != nil {
		item.Status = *r.Status
	}
	if r.Has(ColTags) {
		item.Tags = copyTags(r.Tags)
	}
	if r.Has(ColCreator) && r.Creator != nil {
		item.CreatedBy = domain.DisplayProfile(r.Creator, r.CreatedBy)
	} else if r.Has(ColCreatedBy) && r.CreatedBy != "" && r.CreatedBy != item.CreatedBy.ID {
		item.CreatedBy = domain.DisplayProfile(nil, r.CreatedBy)
	}
	if r.Has(ColCreatedAt) && r.CreatedAt != nil {
		item.CreatedAt = *r.CreatedAt
	}
	if r.Has(ColUpdatedAt) && r.UpdatedAt != nil {
		item.UpdatedAt = *r.UpdatedAt
	}
}

// ToItem materializes a full item from an insert row; absent columns take
// their zero defaults (status planned, empty tags, "Unknown" creator).
func (r ItemRow) ToItem(id string) domain.RoadmapItem {
	item := domain.RoadmapItem{
		ID:        id,
		Status:    domain.StatusPlanned,
		Tags:      []string{},
		CreatedBy: domain.DisplayProfile(nil, r.CreatedBy),
	}
	r.MergeInto(&item)
	if item.CreatedAt.IsZero() && r.UpdatedAt != nil {
		item.CreatedAt = *r.UpdatedAt
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	return item
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
