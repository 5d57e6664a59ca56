package projector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fastygo/roadmap/domain"
)

// GroupBy selects the timeline bucket size.
type GroupBy string

const (
	GroupMonth GroupBy = "month"
	GroupWeek  GroupBy = "week"
)

// ParseGroupBy defaults to month.
func ParseGroupBy(raw string) (GroupBy, bool) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return GroupMonth, true
	case GroupMonth, GroupWeek:
		return g, true
	}
	return "", false
}

// Bucket is one timeline group.
type Bucket struct {
	Key   string               `json:"key"`
	Items []domain.RoadmapItem `json:"items"`
}

// Group sorts items by their timeline date in dir and splits them into month
// ("2006-01") or ISO week ("2006-W01") buckets. Buckets appear in the same
// direction; items inside a bucket keep the sorted order.
func Group(items []domain.RoadmapItem, by GroupBy, dir Direction, opts ...Option) []Bucket {
	o := buildOptions(opts)
	sorted := clone(items)
	sign := 1
	if dir == Desc {
		sign = -1
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sign*compareDate(sorted[i], sorted[j]) < 0
	})

	buckets := []Bucket{}
	index := map[string]int{}
	for _, it := range sorted {
		key := bucketKey(it, by, o.location)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[pos].Items = append(buckets[pos].Items, it)
	}
	return buckets
}

// bucketKey returns the timeline key of it in loc.
func bucketKey(it domain.RoadmapItem, by GroupBy, loc *time.Location) string {
	t := it.TimelineDate().In(loc)
	if by == GroupWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
