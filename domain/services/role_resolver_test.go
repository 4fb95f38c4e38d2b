package services

import (
	"testing"

	"backersync/config"
	"backersync/domain/entities"
	"backersync/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleResolver_Resolve(t *testing.T) {
	t.Parallel()

	guild := &entities.Guild{
		ID: "guild-1",
		Roles: []entities.Role{
			{ID: "100", Name: "root-access-legend"},
			{ID: "200", Name: "low-spec-casual"},
		},
	}

	tests := []struct {
		name     string
		tier     string
		guild    *entities.Guild
		wantRole entities.Role
		wantErr  error
	}{
		{
			name:     "root access legend",
			tier:     "Root-Access Legend",
			guild:    guild,
			wantRole: entities.Role{ID: "100", Name: "root-access-legend"},
		},
		{
			name:     "low spec casual",
			tier:     "Low-Spec Casual",
			guild:    guild,
			wantRole: entities.Role{ID: "200", Name: "low-spec-casual"},
		},
		{
			name:    "unknown tier",
			tier:    "Unknown Tier",
			guild:   guild,
			wantErr: entities.ErrUnknownTier,
		},
		{
			name:    "empty tier",
			tier:    "",
			guild:   guild,
			wantErr: entities.ErrUnknownTier,
		},
		{
			name:    "mapped role missing from guild",
			tier:    "Low-Spec Casual",
			guild:   &entities.Guild{ID: "guild-2", Roles: []entities.Role{{ID: "100", Name: "root-access-legend"}}},
			wantErr: entities.ErrRoleNotFound,
		},
		{
			name:    "role names match exactly",
			tier:    "Low-Spec Casual",
			guild:   &entities.Guild{ID: "guild-3", Roles: []entities.Role{{ID: "300", Name: "Low-Spec-Casual"}}},
			wantErr: entities.ErrRoleNotFound,
		},
	}

	resolver := NewRoleResolver(config.DefaultTierRoles())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := resolver.Resolve(tt.tier, tt.guild)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.tier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestRoleResolver_UsesInjectedMap(t *testing.T) {
	t.Parallel()

	tierMap := new(testhelpers.MockTierRoleMap)
	tierMap.On("Role", "Gold").Return("gold-supporter", true)

	guild := &entities.Guild{Roles: []entities.Role{{ID: "9", Name: "gold-supporter"}}}

	role, err := NewRoleResolver(tierMap).Resolve("Gold", guild)
	require.NoError(t, err)
	assert.Equal(t, "9", role.ID)
	tierMap.AssertExpectations(t)
}
