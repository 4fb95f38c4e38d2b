package bot

import (
	"context"
	"fmt"

	"backersync/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// discordAPI is the slice of the discordgo session the gateway uses
type discordAPI interface {
	memberLister
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// GuildGateway implements the community gateway on top of the Discord API
type GuildGateway struct {
	api      discordAPI
	resolver *MemberResolver
}

// NewGuildGateway creates a gateway backed by the given Discord API
func NewGuildGateway(api discordAPI) *GuildGateway {
	return &GuildGateway{
		api:      api,
		resolver: NewMemberResolver(api),
	}
}

// Guild looks up a guild and its roles
func (g *GuildGateway) Guild(ctx context.Context, guildID string) (*entities.Guild, error) {
	if guildID == "" {
		return nil, fmt.Errorf("no guild id configured: %w", entities.ErrGuildNotFound)
	}

	dg, err := g.api.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild %s: %v: %w", guildID, err, entities.ErrGuildNotFound)
	}
	if dg == nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, entities.ErrGuildNotFound)
	}

	roles := dg.Roles
	if len(roles) == 0 {
		roles, err = g.api.GuildRoles(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list roles for guild %s: %w", guildID, err)
		}
	}

	guild := &entities.Guild{
		ID:    dg.ID,
		Name:  dg.Name,
		Roles: make([]entities.Role, 0, len(roles)),
	}
	if guild.ID == "" {
		guild.ID = guildID
	}
	for _, role := range roles {
		if role == nil {
			continue
		}
		guild.Roles = append(guild.Roles, entities.Role{ID: role.ID, Name: role.Name})
	}

	log.WithFields(log.Fields{
		"guild_id":   guild.ID,
		"guild_name": guild.Name,
		"roles":      len(guild.Roles),
	}).Debug("Resolved guild")

	return guild, nil
}

// FindMemberByName returns the member matching name exactly, or nil
func (g *GuildGateway) FindMemberByName(ctx context.Context, guildID, name string) (*entities.Member, error) {
	return g.resolver.FindByName(ctx, guildID, name)
}

// AddRole grants a role to a member
func (g *GuildGateway) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := g.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to user %s: %w", roleID, userID, err)
	}
	return nil
}
