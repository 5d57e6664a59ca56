package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

type eventRepository struct {
	db DBTX
}

// NewEventRepository returns the Postgres activity log.
func NewEventRepository(db DBTX) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.Event) error {
	if event == nil || event.Type == "" {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO events (id, type, actor_id, item_id, payload)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	var itemID any
	if event.ItemID != nil {
		itemID = *event.ItemID
	}
	return r.db.QueryRow(ctx, query,
		event.ID,
		event.Type,
		event.ActorID,
		itemID,
		marshalPayload(event.Payload),
	).Scan(&event.CreatedAt)
}

func (r *eventRepository) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	const query = `
	SELECT e.id, e.type, e.actor_id, e.item_id, e.payload, e.created_at,
	       p.id, p.name, p.surname, p.avatar_url
	FROM events e
	LEFT JOIN profiles p ON p.id = e.actor_id
	ORDER BY e.created_at DESC
	LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var (
			ev      domain.Event
			payload []byte
			actor   joinedProfile
		)
		dest := []any{&ev.ID, &ev.Type, &ev.ActorID, &ev.ItemID, &payload, &ev.CreatedAt}
		if err := rows.Scan(append(dest, actor.targets()...)...); err != nil {
			return nil, err
		}
		ev.Actor = actor.display(ev.ActorID)
		ev.Payload = map[string]any{}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &ev.Payload)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
