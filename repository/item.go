package repository

import (
	"context"

	"github.com/fastygo/roadmap/domain"
)

// ItemRepository persists roadmap items. Reads join the creator profile.
type ItemRepository interface {
	// List returns all items ordered by start date ascending with nulls last,
	// then by creation time.
	List(ctx context.Context) ([]domain.RoadmapItem, error)
	GetByID(ctx context.Context, id string) (*domain.RoadmapItem, error)
	Create(ctx context.Context, item *domain.RoadmapItem) (*domain.RoadmapItem, error)
	Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (*domain.RoadmapItem, error)
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists item comments.
type CommentRepository interface {
	ListForItem(ctx context.Context, itemID string) ([]domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// EventRepository is the append-only activity log.
type EventRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Event, error)
}
