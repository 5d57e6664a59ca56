package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

type profileRepository struct {
	db DBTX
}

// NewProfileRepository instantiates a Postgres-backed profile repository.
func NewProfileRepository(db DBTX) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
		SELECT id, name, surname, avatar_url, role, created_at
		FROM profiles
		WHERE id = $1
	`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

func (r *profileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	const query = `
		SELECT id, name, surname, avatar_url, role, created_at
		FROM profiles
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if profile == nil || profile.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	// A concurrent first request may have inserted the row already.
	const query = `
	INSERT INTO profiles (id, name, surname, avatar_url, role, created_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, COALESCE($6, NOW()))
	ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query,
		profile.ID,
		profile.Name,
		profile.Surname,
		profile.AvatarURL,
		profile.Role,
		nullTime(profile.CreatedAt),
	); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, profile.ID)
}

func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	const query = `UPDATE profiles SET role = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func scanProfile(row scanner) (*domain.Profile, error) {
	var (
		p       domain.Profile
		surname *string
		avatar  *string
		created time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &surname, &avatar, &p.Role, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	p.Surname = deref(surname)
	p.AvatarURL = deref(avatar)
	p.CreatedAt = created
	return &p, nil
}
