package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Status is the lifecycle state of a roadmap item.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusActive  Status = "active"
	StatusWaiting Status = "waiting"
	StatusDone    Status = "done"
)

var statusOrder = []Status{StatusPlanned, StatusActive, StatusWaiting, StatusDone}

var statusLabels = map[Status]string{
	StatusPlanned: "Gepland",
	StatusActive:  "Actief",
	StatusWaiting: "Wachten",
	StatusDone:    "Klaar",
}

var statusEmoji = map[Status]string{
	StatusPlanned: "📋",
	StatusActive:  "🔨",
	StatusWaiting: "⏳",
	StatusDone:    "✅",
}

// Statuses returns all statuses in their fixed display order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Rank orders statuses planned < active < waiting < done. Unknown statuses sort last.
func (s Status) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return len(statusOrder)
}

// Emoji returns the status marker used in terminal views.
func (s Status) Emoji() string {
	if e, ok := statusEmoji[s]; ok {
		return e
	}
	return "📌"
}

// Label returns the display name shown to the family.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus normalizes raw input into a Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// RoadmapItem is a trackable household-project task.
type RoadmapItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      Status     `json:"status"`
	Tags        []string   `json:"tags"`
	CreatedBy   Profile    `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so snapshots never share mutable slices or pointers.
func (i RoadmapItem) Clone() RoadmapItem {
	out := i
	out.Tags = cloneTags(i.Tags)
	out.StartDate = cloneTime(i.StartDate)
	out.EndDate = cloneTime(i.EndDate)
	return out
}

// TimelineDate is the date used for sorting and bucketing: start date, else creation time.
func (i RoadmapItem) TimelineDate() time.Time {
	if i.StartDate != nil {
		return *i.StartDate
	}
	return i.CreatedAt
}

// FirstTag returns the first tag or an empty string.
func (i RoadmapItem) FirstTag() string {
	if len(i.Tags) == 0 {
		return ""
	}
	return i.Tags[0]
}

// ItemInput is the payload for creating an item.
type ItemInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      Status
	Tags        []string
}

// Normalize applies defaults: status planned, trimmed tags.
func (in *ItemInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = StatusPlanned
	}
	in.Tags = NormalizeTags(in.Tags)
}

// Validate checks the create payload. End before start is deliberately not checked.
func (in ItemInput) Validate() error {
	errs := fieldErrors{}
	switch {
	case in.Title == "":
		errs.add("title", "title is required")
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		errs.add("title", "title must be at most 200 characters")
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		errs.add("description", "description must be at most 2000 characters")
	}
	if !in.Status.Valid() {
		errs.add("status", "unknown status")
	}
	return errs.err()
}

// ItemPatch is a partial update; nil fields are left untouched. ClearStart and
// ClearEnd explicitly null the corresponding dates.
type ItemPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClearStart  bool
	ClearEnd    bool
	Status      *Status
	Tags        []string
	SetTags     bool
}

// Columns lists the item columns touched by the patch.
func (p ItemPatch) Columns() []string {
	var cols []string
	if p.Title != nil {
		cols = append(cols, "title")
	}
	if p.Description != nil {
		cols = append(cols, "description")
	}
	if p.StartDate != nil || p.ClearStart {
		cols = append(cols, "start_date")
	}
	if p.EndDate != nil || p.ClearEnd {
		cols = append(cols, "end_date")
	}
	if p.Status != nil {
		cols = append(cols, "status")
	}
	if p.SetTags {
		cols = append(cols, "tags")
	}
	return cols
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Normalize trims the title and tags.
func (p *ItemPatch) Normalize() {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	if p.SetTags {
		p.Tags = NormalizeTags(p.Tags)
	}
}

// Validate checks the patch bounds.
func (p ItemPatch) Validate() error {
	if p.Empty() {
		return ErrNoChanges
	}
	errs := fieldErrors{}
	if p.Title != nil {
		switch {
		case *p.Title == "":
			errs.add("title", "title is required")
		case utf8.RuneCountInString(*p.Title) > MaxTitleLength:
			errs.add("title", "title must be at most 200 characters")
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
		errs.add("description", "description must be at most 2000 characters")
	}
	if p.Status != nil && !p.Status.Valid() {
		errs.add("status", "unknown status")
	}
	return errs.err()
}

// Apply merges the patch into item in place and bumps nothing else.
func (p ItemPatch) Apply(item *RoadmapItem) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.ClearStart {
		item.StartDate = nil
	} else if p.StartDate != nil {
		item.StartDate = cloneTime(p.StartDate)
	}
	if p.ClearEnd {
		item.EndDate = nil
	} else if p.EndDate != nil {
		item.EndDate = cloneTime(p.EndDate)
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.SetTags {
		item.Tags = cloneTags(p.Tags)
	}
}

// NormalizeTags trims tags and drops empty ones, preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
