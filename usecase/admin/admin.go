package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/repository"
	"github.com/fastygo/roadmap/usecase"
)

const tokenBytes = 24

// TokenSource generates invite tokens.
type TokenSource func() (string, error)

// RandomToken returns a hex encoded random token.
func RandomToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type UseCase struct {
	profiles repository.ProfileRepository
	invites  repository.InviteRepository
	ttl      time.Duration
	now      usecase.Clock
	token    TokenSource
	logger   *zap.Logger
}

type Option func(*UseCase)

func WithInviteTTL(ttl time.Duration) Option {
	return func(uc *UseCase) {
		if ttl > 0 {
			uc.ttl = ttl
		}
	}
}

func WithClock(clock usecase.Clock) Option {
	return func(uc *UseCase) {
		if clock != nil {
			uc.now = clock
		}
	}
}

func WithTokenSource(src TokenSource) Option {
	return func(uc *UseCase) {
		if src != nil {
			uc.token = src
		}
	}
}

func New(profiles repository.ProfileRepository, invites repository.InviteRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		profiles: profiles,
		invites:  invites,
		ttl:      domain.DefaultInviteTTL,
		now:      time.Now,
		token:    RandomToken,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// requireAdmin checks the stored role, not the one carried by the caller.
func (uc *UseCase) requireAdmin(ctx context.Context, actor domain.Identity) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthorized
	}
	profile, err := uc.profiles.GetByID(ctx, actor.UserID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.ErrForbidden
		}
		return domain.Internal("failed to load profile", err)
	}
	if !profile.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// CreateInvite issues a single-use token for email. A second invite for an
// address with a pending one is rejected.
func (uc *UseCase) CreateInvite(ctx context.Context, actor domain.Identity, email string) (*domain.Invite, error) {
	if err := uc.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	now := uc.now()
	if _, err := uc.invites.FindPending(ctx, email, now); err == nil {
		return nil, domain.NewValidationError(map[string][]string{
			"email": {"an invite for this email address is still pending"},
		})
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, domain.Internal("failed to check invites", err)
	}

	token, err := uc.token()
	if err != nil {
		return nil, domain.Internal("failed to generate invite token", err)
	}
	invite := &domain.Invite{
		Email:     email,
		Token:     token,
		InvitedBy: actor.UserID,
		ExpiresAt: now.Add(uc.ttl),
		CreatedAt: now,
	}
	if err := uc.invites.Create(ctx, invite); err != nil {
		return nil, domain.Internal("failed to create invite", err)
	}
	uc.logger.Info("invite created", zap.String("invite_id", invite.ID), zap.String("invited_by", actor.UserID))
	return invite, nil
}

// ListMembers returns profiles, oldest first.
func (uc *UseCase) ListMembers(ctx context.Context, actor domain.Identity) ([]domain.Profile, error) {
	if err := uc.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	members, err := uc.profiles.List(ctx)
	if err != nil {
		return nil, domain.Internal("failed to load members", err)
	}
	return members, nil
}

// ListInvites returns invites, newest first.
func (uc *UseCase) ListInvites(ctx context.Context, actor domain.Identity) ([]domain.Invite, error) {
	if err := uc.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	invites, err := uc.invites.List(ctx)
	if err != nil {
		return nil, domain.Internal("failed to load invites", err)
	}
	return invites, nil
}

func (uc *UseCase) UpdateMemberRole(ctx context.Context, actor domain.Identity, userID string, role domain.Role) error {
	if err := uc.requireAdmin(ctx, actor); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if err := domain.ValidateRoleChange(userID, role); err != nil {
		return err
	}
	if err := uc.profiles.UpdateRole(ctx, userID, role); err != nil {
		return domain.Internal("failed to update role", err)
	}
	uc.logger.Info("member role updated", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}

func (uc *UseCase) RevokeInvite(ctx context.Context, actor domain.Identity, id string) error {
	if err := uc.requireAdmin(ctx, actor); err != nil {
		return err
	}
	if err := uc.invites.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return domain.Internal("failed to revoke invite", err)
	}
	return nil
}

// ValidateInvite returns the invite behind token while it is still pending.
func (uc *UseCase) ValidateInvite(ctx context.Context, token string) (*domain.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInviteNotFound
	}
	invite, err := uc.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, domain.Internal("failed to load invite", err)
	}
	if invite.State(uc.now()) != domain.InvitePending {
		return nil, domain.ErrInviteNotPending
	}
	return invite, nil
}

// AcceptInvite consumes the token. It fails once the invite was accepted or expired.
func (uc *UseCase) AcceptInvite(ctx context.Context, token string) (*domain.Invite, error) {
	invite, err := uc.ValidateInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	at := uc.now()
	if err := uc.invites.MarkAccepted(ctx, invite.ID, at); err != nil {
		return nil, domain.Internal("failed to accept invite", err)
	}
	invite.AcceptedAt = &at
	uc.logger.Info("invite accepted", zap.String("invite_id", invite.ID))
	return invite, nil
}
