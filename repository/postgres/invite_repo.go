package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

const inviteColumns = `id, email, token, invited_by, accepted_at, expires_at, created_at`

type inviteRepository struct {
	db DBTX
}

// NewInviteRepository returns a Postgres-backed InviteRepository.
func NewInviteRepository(db DBTX) repository.InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	if invite == nil || invite.Token == "" {
		return domain.ErrInvalidPayload
	}
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO invites (id, email, token, invited_by, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		invite.ID,
		invite.Email,
		invite.Token,
		invite.InvitedBy,
		invite.ExpiresAt,
	).Scan(&invite.CreatedAt)
	if isUniqueViolation(err) {
		return domain.WrapError(domain.ErrCodeConflict, "invite token collision", err)
	}
	return err
}

func (r *inviteRepository) List(ctx context.Context) ([]domain.Invite, error) {
	rows, err := r.db.Query(ctx, `SELECT `+inviteColumns+` FROM invites ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []domain.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) FindPending(ctx context.Context, email string, now time.Time) (*domain.Invite, error) {
	query := `
	SELECT ` + inviteColumns + `
	FROM invites
	WHERE email = $1 AND accepted_at IS NULL AND expires_at > $2
	ORDER BY created_at DESC
	LIMIT 1
	`
	return scanInvite(r.db.QueryRow(ctx, query, email, now))
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	return scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token))
}

func (r *inviteRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE invites SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInviteNotPending
	}
	return nil
}

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

func scanInvite(row scanner) (*domain.Invite, error) {
	var inv domain.Invite
	if err := row.Scan(
		&inv.ID,
		&inv.Email,
		&inv.Token,
		&inv.InvitedBy,
		&inv.AcceptedAt,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}
