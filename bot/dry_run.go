package bot

import (
	"context"

	"backersync/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DryRunGateway reads through to the wrapped gateway but never grants roles
type DryRunGateway struct {
	interfaces.CommunityGateway
}

// NewDryRunGateway wraps a gateway so that AddRole only logs
func NewDryRunGateway(gateway interfaces.CommunityGateway) *DryRunGateway {
	return &DryRunGateway{CommunityGateway: gateway}
}

// AddRole logs the grant it would have made
func (d *DryRunGateway) AddRole(_ context.Context, guildID, userID, roleID string) error {
	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"role_id":  roleID,
	}).Info("Dry run: skipping role grant")
	return nil
}

var (
	_ interfaces.CommunityGateway = (*DryRunGateway)(nil)
	_ interfaces.CommunityGateway = (*GuildGateway)(nil)
)
