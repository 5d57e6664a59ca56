package projector

import "github.com/fastygo/roadmap/domain"

// Column is one kanban lane.
type Column struct {
	Status domain.Status        `json:"status"`
	Label  string               `json:"label"`
	Items  []domain.RoadmapItem `json:"items"`
}

// Kanban partitions items into the four status lanes in fixed order. Empty
// lanes are kept.
func Kanban(items []domain.RoadmapItem) []Column {
	statuses := domain.Statuses()
	cols := make([]Column, len(statuses))
	pos := make(map[domain.Status]int, len(statuses))
	for i, st := range statuses {
		cols[i] = Column{Status: st, Label: st.Label(), Items: []domain.RoadmapItem{}}
		pos[st] = i
	}
	for _, it := range items {
		if i, ok := pos[it.Status]; ok {
			cols[i].Items = append(cols[i].Items, it)
		}
	}
	return cols
}
