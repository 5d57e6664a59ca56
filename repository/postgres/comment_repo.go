package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

type commentRepository struct {
	db DBTX
}

// NewCommentRepository returns a Postgres-backed CommentRepository.
func NewCommentRepository(db DBTX) repository.CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) ListForItem(ctx context.Context, itemID string) ([]domain.Comment, error) {
	const query = `
	SELECT c.id, c.item_id, c.message, c.user_id, c.created_at,
	       p.id, p.name, p.surname, p.avatar_url
	FROM comments c
	LEFT JOIN profiles p ON p.id = c.user_id
	WHERE c.item_id = $1
	ORDER BY c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment == nil {
		return nil, domain.ErrInvalidPayload
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO comments (id, item_id, user_id, message)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		comment.ID,
		comment.ItemID,
		comment.Author.ID,
		comment.Message,
	).Scan(&comment.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func scanComment(row scanner) (*domain.Comment, error) {
	var (
		c      domain.Comment
		userID string
		author joinedProfile
	)
	dest := []any{&c.ID, &c.ItemID, &c.Message, &userID, &c.CreatedAt}
	if err := row.Scan(append(dest, author.targets()...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	c.Author = author.display(userID)
	return &c, nil
}
