// Package roadmap implements the item, comment and activity operations of the
// family roadmap. Every successful mutation appends its activity event in the
// same transaction and then fans the item change out to live sessions.
package roadmap

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/realtime"
	"github.com/fastygo/roadmap/repository"
	"github.com/fastygo/roadmap/usecase"
)

// DefaultEventLimit is used when RecentEvents receives a non-positive limit.
const DefaultEventLimit = 20

// commentSnippetLength bounds the message copied into comment_added events.
const commentSnippetLength = 200

type UseCase struct {
	tx        repository.Transactor
	repos     repository.Repos
	publisher usecase.ChangePublisher
	policy    *bluemonday.Policy
	logger    *zap.Logger
}

// New wires the use case. repos serve reads outside a transaction; publisher
// may be nil when no live sessions are fed.
func New(tx repository.Transactor, repos repository.Repos, publisher usecase.ChangePublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tx:        tx,
		repos:     repos,
		publisher: publisher,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

func (uc *UseCase) ListItems(ctx context.Context) ([]domain.RoadmapItem, error) {
	items, err := uc.repos.Items.List(ctx)
	if err != nil {
		return nil, domain.Internal("failed to load items", err)
	}
	return items, nil
}

func (uc *UseCase) GetItem(ctx context.Context, id string) (*domain.RoadmapItem, error) {
	item, err := uc.repos.Items.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, domain.Internal("failed to load item", err)
	}
	return item, nil
}

func (uc *UseCase) CreateItem(ctx context.Context, actor domain.Identity, in domain.ItemInput) (*domain.RoadmapItem, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.RoadmapItem
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		item, err := repos.Items.Create(ctx, &domain.RoadmapItem{
			Title:       in.Title,
			Description: in.Description,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
			Status:      in.Status,
			Tags:        in.Tags,
			CreatedBy:   domain.Profile{ID: actor.UserID},
		})
		if err != nil {
			return err
		}
		ev := domain.NewEvent(domain.EventItemCreated, actor.UserID, item.ID, map[string]any{
			"title": item.Title,
		})
		if err := repos.Events.Append(ctx, &ev); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, domain.Internal("failed to create item", err)
	}

	uc.publish(ctx, realtime.Change{
		Type:    realtime.Insert,
		ID:      created.ID,
		Row:     realtime.RowFromItem(*created),
		ActorID: actor.UserID,
	})
	uc.logger.Info("item created", zap.String("item_id", created.ID), zap.String("actor_id", actor.UserID))
	return created, nil
}

func (uc *UseCase) UpdateItem(ctx context.Context, actor domain.Identity, id string, patch domain.ItemPatch) (*domain.RoadmapItem, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.RoadmapItem
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		item, err := repos.Items.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		ev := domain.NewEvent(domain.EventItemUpdated, actor.UserID, id, patchPayload(patch))
		if err := repos.Events.Append(ctx, &ev); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, domain.Internal("failed to update item", err)
	}

	uc.publish(ctx, realtime.Change{
		Type:    realtime.Update,
		ID:      id,
		Row:     realtime.RowFromItem(*updated, patch.Columns()...),
		ActorID: actor.UserID,
	})
	return updated, nil
}

func (uc *UseCase) SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.Status) (*domain.RoadmapItem, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)
	if !status.Valid() {
		return nil, domain.NewValidationError(map[string][]string{"status": {"unknown status"}})
	}

	var updated *domain.RoadmapItem
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		item, err := repos.Items.SetStatus(ctx, id, status)
		if err != nil {
			return err
		}
		ev := domain.NewEvent(domain.EventStatusChanged, actor.UserID, id, map[string]any{
			"status": string(status),
		})
		if err := repos.Events.Append(ctx, &ev); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, domain.Internal("failed to change status", err)
	}

	uc.publish(ctx, realtime.Change{
		Type:    realtime.Update,
		ID:      id,
		Row:     realtime.RowFromItem(*updated, realtime.ColStatus),
		ActorID: actor.UserID,
	})
	return updated, nil
}

// DeleteItem removes the item and its comments. The deleted title is kept in
// the event payload because the event no longer references the item.
func (uc *UseCase) DeleteItem(ctx context.Context, actor domain.Identity, id string) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthorized
	}
	id = strings.TrimSpace(id)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Items.Delete(ctx, id); err != nil {
			return err
		}
		ev := domain.NewEvent(domain.EventItemDeleted, actor.UserID, "", map[string]any{
			"deleted_id": id,
			"title":      item.Title,
		})
		return repos.Events.Append(ctx, &ev)
	})
	if err != nil {
		return domain.Internal("failed to delete item", err)
	}

	uc.publish(ctx, realtime.Change{Type: realtime.Delete, ID: id, ActorID: actor.UserID})
	uc.logger.Info("item deleted", zap.String("item_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

func (uc *UseCase) ListComments(ctx context.Context, itemID string) ([]domain.Comment, error) {
	comments, err := uc.repos.Comments.ListForItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return nil, domain.Internal("failed to load comments", err)
	}
	return comments, nil
}

// AddComment stores the message as plain text; markup is stripped first.
func (uc *UseCase) AddComment(ctx context.Context, actor domain.Identity, in domain.CommentInput) (*domain.Comment, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	in.Message = uc.plainText(in.Message)
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Comment
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		comment, err := repos.Comments.Create(ctx, &domain.Comment{
			ItemID:  in.ItemID,
			Message: in.Message,
			Author:  domain.Profile{ID: actor.UserID},
		})
		if err != nil {
			return err
		}
		ev := domain.NewEvent(domain.EventCommentAdded, actor.UserID, in.ItemID, map[string]any{
			"message": truncateRunes(in.Message, commentSnippetLength),
		})
		if err := repos.Events.Append(ctx, &ev); err != nil {
			return err
		}
		created = comment
		return nil
	})
	if err != nil {
		return nil, domain.Internal("failed to add comment", err)
	}
	return created, nil
}

// DeleteComment appends no activity event.
func (uc *UseCase) DeleteComment(ctx context.Context, actor domain.Identity, id string) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthorized
	}
	if err := uc.repos.Comments.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return domain.Internal("failed to delete comment", err)
	}
	return nil
}

func (uc *UseCase) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	events, err := uc.repos.Events.Recent(ctx, limit)
	if err != nil {
		return nil, domain.Internal("failed to load activity", err)
	}
	return events, nil
}

func (uc *UseCase) publish(ctx context.Context, change realtime.Change) {
	if uc.publisher == nil {
		return
	}
	uc.publisher.PublishChange(ctx, change)
}

func (uc *UseCase) plainText(s string) string {
	return html.UnescapeString(uc.policy.Sanitize(s))
}

// patchPayload records the changed columns and their new values.
func patchPayload(p domain.ItemPatch) map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out[realtime.ColTitle] = *p.Title
	}
	if p.Description != nil {
		out[realtime.ColDescription] = *p.Description
	}
	if p.ClearStart {
		out[realtime.ColStartDate] = nil
	} else if p.StartDate != nil {
		out[realtime.ColStartDate] = p.StartDate.UTC().Format(time.RFC3339)
	}
	if p.ClearEnd {
		out[realtime.ColEndDate] = nil
	} else if p.EndDate != nil {
		out[realtime.ColEndDate] = p.EndDate.UTC().Format(time.RFC3339)
	}
	if p.Status != nil {
		out[realtime.ColStatus] = string(*p.Status)
	}
	if p.SetTags {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		out[realtime.ColTags] = tags
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
