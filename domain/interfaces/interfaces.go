package interfaces

import (
	"context"

	"backersync/domain/entities"
	"backersync/domain/events"
)

// BackerSource fetches eligible backers for an organization
type BackerSource interface {
	FetchBackers(ctx context.Context, org string) ([]entities.Backer, error)
}

// TierRoleMap maps a funding tier name to a Discord role name
type TierRoleMap interface {
	Role(tier string) (string, bool)
	Contains(tier string) bool
}

// CommunityConnection is the lifecycle of the chat platform connection
type CommunityConnection interface {
	// Connect authenticates and blocks until the platform reports ready
	Connect(ctx context.Context) error
	Close() error
}

// CommunityGateway is the capability set the sync needs from the chat platform
type CommunityGateway interface {
	// Guild returns the guild with its roles, or an error wrapping ErrGuildNotFound
	Guild(ctx context.Context, guildID string) (*entities.Guild, error)

	// FindMemberByName returns the member whose name equals name exactly, or nil
	FindMemberByName(ctx context.Context, guildID, name string) (*entities.Member, error)

	// AddRole grants an existing role to an existing member
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// SyncMetrics records sync activity
type SyncMetrics interface {
	RecordBackersFetched(count int)
	RecordOutcome(outcome entities.SyncOutcome)
	RecordRun(result string)
}

// RunNotifier announces the end of a run
type RunNotifier interface {
	NotifyRun(ctx context.Context, report *entities.SyncReport, runErr error) error
}
