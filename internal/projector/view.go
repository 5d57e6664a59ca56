package projector

import (
	"strings"

	"github.com/fastygo/roadmap/domain"
)

// Mode is the dashboard view.
type Mode string

const (
	ModeList     Mode = "list"
	ModeTimeline Mode = "timeline"
	ModeKanban   Mode = "kanban"
)

// ParseMode defaults to the timeline.
func ParseMode(raw string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeTimeline, true
	case ModeList, ModeTimeline, ModeKanban:
		return m, true
	}
	return "", false
}

// ViewOptions drives Project.
type ViewOptions struct {
	Mode     Mode
	Criteria Criteria
	Sort     SortField
	Dir      Direction
	Group    GroupBy
}

// DefaultViewOptions is the dashboard's opening view: the timeline by month,
// newest first.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Mode:     ModeTimeline,
		Criteria: Criteria{Status: StatusAll},
		Sort:     SortDate,
		Dir:      Desc,
		Group:    GroupMonth,
	}
}

// View is a projected snapshot. Only the part matching Mode is filled.
type View struct {
	Mode    Mode                 `json:"mode"`
	Total   int                  `json:"total"`
	Items   []domain.RoadmapItem `json:"items,omitempty"`
	Buckets []Bucket             `json:"buckets,omitempty"`
	Columns []Column             `json:"columns,omitempty"`
}

// Project filters the snapshot and shapes it for opts.Mode.
func Project(items []domain.RoadmapItem, opts ViewOptions, o ...Option) View {
	filtered := Filter(items, opts.Criteria)
	v := View{Mode: opts.Mode, Total: len(filtered)}
	switch opts.Mode {
	case ModeList:
		v.Items = Sort(filtered, opts.Sort, opts.Dir, o...)
	case ModeKanban:
		v.Columns = Kanban(filtered)
	default:
		v.Mode = ModeTimeline
		v.Buckets = Group(filtered, opts.Group, opts.Dir, o...)
	}
	return v
}
