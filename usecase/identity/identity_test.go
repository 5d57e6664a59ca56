package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/testutil"
	"github.com/fastygo/roadmap/usecase/identity"
)

func TestResolve_CreatesProfile(t *testing.T) {
	tests := []struct {
		name     string
		id       domain.Identity
		wantName string
		wantRole domain.Role
	}{
		{
			name:     "name from metadata",
			id:       domain.Identity{UserID: "u1", Email: "sanne@example.com", Name: "Sanne"},
			wantName: "Sanne",
			wantRole: domain.RoleFamily,
		},
		{
			name:     "name from email",
			id:       domain.Identity{UserID: "u2", Email: "pieter@example.com"},
			wantName: "pieter",
			wantRole: domain.RoleFamily,
		},
		{
			name:     "admin email",
			id:       domain.Identity{UserID: "u3", Email: "Papa@Example.com"},
			wantName: "Papa",
			wantRole: domain.RoleAdmin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemStore()
			uc := identity.New(store.Repos().Profiles, []string{" papa@example.com", ""}, nil)

			resolved, err := uc.Resolve(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, resolved.Role)
			assert.Equal(t, tt.wantName, resolved.Name)

			stored, err := store.Repos().Profiles.GetByID(context.Background(), tt.id.UserID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, stored.Name)
		})
	}
}

func TestResolve_ExistingProfileKeepsRole(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedProfile(domain.Profile{ID: "u1", Name: "Papa", Role: domain.RoleFamily})
	uc := identity.New(store.Repos().Profiles, []string{"papa@example.com"}, nil)

	resolved, err := uc.Resolve(context.Background(), domain.Identity{UserID: "u1", Email: "papa@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFamily, resolved.Role)
	assert.Equal(t, "Papa", resolved.Name)
}

func TestResolve_Errors(t *testing.T) {
	store := testutil.NewMemStore()
	uc := identity.New(store.Repos().Profiles, nil, nil)

	_, err := uc.Resolve(context.Background(), domain.Identity{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	store.Fail("profiles.get", errors.New("connection reset"))
	_, err = uc.Resolve(context.Background(), domain.Identity{UserID: "u1"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}
