package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/roadmap/domain"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so repositories run inside
// or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// joinedProfile holds the nullable columns of a LEFT JOIN on profiles.
type joinedProfile struct {
	ID        *string
	Name      *string
	Surname   *string
	AvatarURL *string
}

func (j *joinedProfile) targets() []any {
	return []any{&j.ID, &j.Name, &j.Surname, &j.AvatarURL}
}

// display falls back to "Unknown" when the join found nothing.
func (j joinedProfile) display(fallbackID string) domain.Profile {
	if j.ID == nil {
		return domain.DisplayProfile(nil, fallbackID)
	}
	return domain.DisplayProfile(&domain.Profile{
		ID:        *j.ID,
		Name:      deref(j.Name),
		Surname:   deref(j.Surname),
		AvatarURL: deref(j.AvatarURL),
	}, fallbackID)
}

func marshalPayload(data map[string]any) []byte {
	if len(data) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
