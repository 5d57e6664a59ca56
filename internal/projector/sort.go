package projector

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fastygo/roadmap/domain"
)

// SortField names a list-view sort key.
type SortField string

const (
	SortDate   SortField = "date"
	SortStatus SortField = "status"
	SortTitle  SortField = "title"
	SortTags   SortField = "tags"
	SortOwner  SortField = "owner"
)

// ParseSortField accepts the field names plus "start_date" as an alias for date.
func ParseSortField(raw string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", "start_date":
		return SortDate, true
	case SortDate, SortStatus, SortTitle, SortTags, SortOwner:
		return f, true
	}
	return "", false
}

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection returns def for an empty value.
func ParseDirection(raw string, def Direction) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return def, true
	case Asc, Desc:
		return d, true
	}
	return "", false
}

// DefaultLocale is used for text comparisons when no locale is configured.
var DefaultLocale = language.Dutch

type options struct {
	locale   language.Tag
	location *time.Location
}

// Option customizes sorting and grouping.
type Option func(*options)

// WithLocale sets the collation locale for text fields.
func WithLocale(tag language.Tag) Option {
	return func(o *options) { o.locale = tag }
}

// WithLocation sets the time zone used to compute bucket keys.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// ParseLocale parses a BCP 47 tag, falling back to DefaultLocale.
func ParseLocale(raw string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLocale
	}
	return tag
}

func buildOptions(opts []Option) options {
	o := options{locale: DefaultLocale, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Sort returns items ordered by field in dir. Ties keep their input order.
func Sort(items []domain.RoadmapItem, field SortField, dir Direction, opts ...Option) []domain.RoadmapItem {
	o := buildOptions(opts)
	out := clone(items)

	// A collator keeps internal buffers, so each call gets its own.
	col := collate.New(o.locale)
	cmp := comparator(field, col)

	sign := 1
	if dir == Desc {
		sign = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sign*cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(field SortField, col *collate.Collator) func(a, b domain.RoadmapItem) int {
	switch field {
	case SortStatus:
		return func(a, b domain.RoadmapItem) int {
			return a.Status.Rank() - b.Status.Rank()
		}
	case SortTitle:
		return func(a, b domain.RoadmapItem) int {
			return col.CompareString(a.Title, b.Title)
		}
	case SortTags:
		return func(a, b domain.RoadmapItem) int {
			return col.CompareString(a.FirstTag(), b.FirstTag())
		}
	case SortOwner:
		return func(a, b domain.RoadmapItem) int {
			return col.CompareString(a.CreatedBy.Name, b.CreatedBy.Name)
		}
	default:
		return compareDate
	}
}

func compareDate(a, b domain.RoadmapItem) int {
	return a.TimelineDate().Compare(b.TimelineDate())
}
