package services

import "backersync/domain/entities"

// testGuild returns a guild carrying both default tier roles
func testGuild() *entities.Guild {
	return &entities.Guild{
		ID:   "guild-1",
		Name: "Bazzite",
		Roles: []entities.Role{
			{ID: "100", Name: "root-access-legend"},
			{ID: "200", Name: "low-spec-casual"},
		},
	}
}

// testBacker builds an eligible backer record
func testBacker(id, tier, description string) entities.Backer {
	return entities.Backer{
		ID:          id,
		Role:        entities.BackerRole,
		Description: &description,
		Tier:        &tier,
	}
}
