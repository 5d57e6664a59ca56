package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

const itemColumns = `
	i.id, i.title, i.description, i.start_date, i.end_date, i.status, i.tags,
	i.created_by, i.created_at, i.updated_at,
	p.id, p.name, p.surname, p.avatar_url
`

type itemRepository struct {
	db DBTX
}

// NewItemRepository returns a Postgres-backed implementation of ItemRepository.
func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.RoadmapItem, error) {
	query := `
	SELECT ` + itemColumns + `
	FROM roadmap_items i
	LEFT JOIN profiles p ON p.id = i.created_by
	WHERE i.id = $1
	`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

func (r *itemRepository) List(ctx context.Context) ([]domain.RoadmapItem, error) {
	query := `
	SELECT ` + itemColumns + `
	FROM roadmap_items i
	LEFT JOIN profiles p ON p.id = i.created_by
	ORDER BY i.start_date ASC NULLS LAST, i.created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.RoadmapItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *itemRepository) Create(ctx context.Context, item *domain.RoadmapItem) (*domain.RoadmapItem, error) {
	if item == nil {
		return nil, domain.ErrInvalidPayload
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}

	const query = `
	INSERT INTO roadmap_items (id, title, description, start_date, end_date, status, tags, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		nullableTime(item.StartDate),
		nullableTime(item.EndDate),
		item.Status,
		tags,
		item.CreatedBy.ID,
	); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, item.ID)
}

func (r *itemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error) {
	sets := make([]string, 0, 7)
	args := []any{id}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.ClearStart {
		set("start_date", nil)
	} else if patch.StartDate != nil {
		set("start_date", *patch.StartDate)
	}
	if patch.ClearEnd {
		set("end_date", nil)
	} else if patch.EndDate != nil {
		set("end_date", *patch.EndDate)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.SetTags {
		tags := patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set("tags", tags)
	}
	if len(sets) == 0 {
		return nil, domain.ErrNoChanges
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE roadmap_items SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrItemNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *itemRepository) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.RoadmapItem, error) {
	const query = `UPDATE roadmap_items SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrItemNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM roadmap_items WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItem(row scanner) (*domain.RoadmapItem, error) {
	var (
		item      domain.RoadmapItem
		start     *time.Time
		end       *time.Time
		createdBy string
		creator   joinedProfile
	)

	dest := []any{
		&item.ID,
		&item.Title,
		&item.Description,
		&start,
		&end,
		&item.Status,
		&item.Tags,
		&createdBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
	if err := row.Scan(append(dest, creator.targets()...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}

	item.StartDate = start
	item.EndDate = end
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.CreatedBy = creator.display(createdBy)
	return &item, nil
}
