package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/roadmap/repository"
)

// Store hands out pool-bound repositories and runs transactional units of work.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Repos returns repositories that run each statement on the pool.
func (s *Store) Repos() repository.Repos {
	return reposFor(s.pool)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, reposFor(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func reposFor(db DBTX) repository.Repos {
	return repository.Repos{
		Items:    NewItemRepository(db),
		Comments: NewCommentRepository(db),
		Events:   NewEventRepository(db),
		Profiles: NewProfileRepository(db),
		Invites:  NewInviteRepository(db),
	}
}
