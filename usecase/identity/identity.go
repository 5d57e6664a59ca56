package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
)

// UseCase turns the identity asserted by the auth collaborator into a stored
// profile, creating it on first sight.
type UseCase struct {
	profiles    repository.ProfileRepository
	adminEmails map[string]struct{}
	logger      *zap.Logger
}

func New(profiles repository.ProfileRepository, adminEmails []string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = domain.NormalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &UseCase{
		profiles:    profiles,
		adminEmails: admins,
		logger:      logger,
	}
}

// Resolve returns the caller's identity with the stored role filled in.
func (uc *UseCase) Resolve(ctx context.Context, id domain.Identity) (domain.Identity, error) {
	profile, err := uc.Profile(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	id.Role = profile.Role
	if id.Name == "" {
		id.Name = profile.Name
	}
	return id, nil
}

// Profile loads the caller's profile, creating it when missing.
func (uc *UseCase) Profile(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	existing, err := uc.profiles.GetByID(ctx, id.UserID)
	if err == nil {
		return existing, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, domain.Internal("failed to load profile", err)
	}

	profile := &domain.Profile{
		ID:   id.UserID,
		Name: displayName(id),
		Role: uc.roleFor(id.Email),
	}
	// Create returns the stored row, so a concurrent insert wins and is read back.
	created, err := uc.profiles.Create(ctx, profile)
	if err != nil {
		return nil, domain.Internal("failed to create profile", err)
	}
	uc.logger.Info("profile created",
		zap.String("user_id", created.ID),
		zap.String("role", string(created.Role)))
	return created, nil
}

func (uc *UseCase) roleFor(email string) domain.Role {
	if _, ok := uc.adminEmails[domain.NormalizeEmail(email)]; ok && email != "" {
		return domain.RoleAdmin
	}
	return domain.RoleFamily
}

func displayName(id domain.Identity) string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	if id.Email != "" {
		return id.Email
	}
	return "User"
}
