package projector

import (
	"math"
	"sort"

	"github.com/fastygo/roadmap/domain"
)

// DefaultUpcoming is the number of items Upcoming returns when n <= 0.
const DefaultUpcoming = 4

// StatusCount is the number of items in one status.
type StatusCount struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
}

// Summary is the progress overview of a snapshot.
type Summary struct {
	Total       int           `json:"total"`
	Counts      []StatusCount `json:"counts"`
	PercentDone int           `json:"percent_done"`
}

// Summarize counts items per status and the rounded share that is done.
func Summarize(items []domain.RoadmapItem) Summary {
	s := Summary{Total: len(items)}
	done := 0
	for _, st := range domain.Statuses() {
		n := 0
		for _, it := range items {
			if it.Status == st {
				n++
			}
		}
		if st == domain.StatusDone {
			done = n
		}
		s.Counts = append(s.Counts, StatusCount{Status: st, Label: st.Label(), Count: n})
	}
	if s.Total > 0 {
		s.PercentDone = int(math.Round(float64(done) / float64(s.Total) * 100))
	}
	return s
}

// Upcoming returns the first n active or planned items that have a start
// date, earliest first.
func Upcoming(items []domain.RoadmapItem, n int) []domain.RoadmapItem {
	if n <= 0 {
		n = DefaultUpcoming
	}
	out := make([]domain.RoadmapItem, 0, len(items))
	for _, it := range items {
		if it.StartDate == nil {
			continue
		}
		if it.Status == domain.StatusActive || it.Status == domain.StatusPlanned {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(*out[j].StartDate)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
