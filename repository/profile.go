package repository

import (
	"context"
	"time"

	"github.com/fastygo/roadmap/domain"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	// Create inserts the profile unless one with the same id exists and
	// returns the stored row.
	Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}

type InviteRepository interface {
	Create(ctx context.Context, invite *domain.Invite) error
	List(ctx context.Context) ([]domain.Invite, error)
	// FindPending returns the unaccepted, unexpired invite for email.
	FindPending(ctx context.Context, email string, now time.Time) (*domain.Invite, error)
	GetByToken(ctx context.Context, token string) (*domain.Invite, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
