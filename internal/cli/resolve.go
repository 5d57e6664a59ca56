package cli

import (
	"fmt"
	"strings"

	"github.com/fastygo/roadmap/domain"
)

// resolveItemID accepts a full id, a unique id prefix or a unique title
// (case-insensitive).
func resolveItemID(items []domain.RoadmapItem, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("item is required")
	}

	for _, it := range items {
		if it.ID == input {
			return it.ID, nil
		}
	}

	var matches []string
	for _, it := range items {
		if strings.HasPrefix(it.ID, input) {
			matches = append(matches, it.ID)
		}
	}
	if len(matches) == 0 {
		for _, it := range items {
			if strings.EqualFold(it.Title, input) {
				matches = append(matches, it.ID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("item not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("item %q is ambiguous (%d matches)", input, len(matches))
	}
}
