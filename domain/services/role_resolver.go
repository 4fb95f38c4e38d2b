package services

import (
	"fmt"

	"backersync/domain/entities"
	"backersync/domain/interfaces"
)

// RoleResolver maps a funding tier to the guild role it grants
type RoleResolver struct {
	tierRoles interfaces.TierRoleMap
}

// NewRoleResolver creates a resolver over an injected tier map
func NewRoleResolver(tierRoles interfaces.TierRoleMap) *RoleResolver {
	return &RoleResolver{tierRoles: tierRoles}
}

// Resolve finds the guild role for tier. Both failure modes are fatal for a run:
// an unmapped tier wraps ErrUnknownTier, a mapped role missing from the guild wraps ErrRoleNotFound.
func (r *RoleResolver) Resolve(tier string, guild *entities.Guild) (entities.Role, error) {
	roleName, ok := r.tierRoles.Role(tier)
	if !ok {
		return entities.Role{}, fmt.Errorf("%w: tier %q", entities.ErrUnknownTier, tier)
	}

	role, ok := guild.RoleNamed(roleName)
	if !ok {
		return entities.Role{}, fmt.Errorf("%w: did not find discord role %q associated with tier %q",
			entities.ErrRoleNotFound, roleName, tier)
	}

	return role, nil
}
