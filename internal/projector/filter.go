// Package projector derives filtered, sorted and grouped presentations from an
// item snapshot. Every function is pure: inputs are never modified and the
// returned slices are freshly allocated.
package projector

import (
	"strings"

	"github.com/fastygo/roadmap/domain"
)

// StatusFilter selects items by status. StatusAll passes everything through.
type StatusFilter string

const StatusAll StatusFilter = "all"

// ParseStatusFilter accepts "all", an empty value or a known status.
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == string(StatusAll) {
		return StatusAll, true
	}
	st, ok := domain.ParseStatus(raw)
	if !ok {
		return "", false
	}
	return StatusFilter(st), true
}

// Criteria combines the status filter and the text query.
type Criteria struct {
	Status StatusFilter
	Query  string
}

// FilterStatus keeps items whose status matches f, preserving order.
func FilterStatus(items []domain.RoadmapItem, f StatusFilter) []domain.RoadmapItem {
	if f == "" || f == StatusAll {
		return clone(items)
	}
	out := make([]domain.RoadmapItem, 0, len(items))
	for _, it := range items {
		if it.Status == domain.Status(f) {
			out = append(out, it)
		}
	}
	return out
}

// Search keeps items whose title, description or any tag contains query,
// ignoring case. A blank query matches everything.
func Search(items []domain.RoadmapItem, query string) []domain.RoadmapItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(items)
	}
	out := make([]domain.RoadmapItem, 0, len(items))
	for _, it := range items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

// Filter applies the status filter, then the query.
func Filter(items []domain.RoadmapItem, c Criteria) []domain.RoadmapItem {
	return Search(FilterStatus(items, c.Status), c.Query)
}

func matches(it domain.RoadmapItem, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func clone(items []domain.RoadmapItem) []domain.RoadmapItem {
	out := make([]domain.RoadmapItem, len(items))
	copy(out, items)
	return out
}
