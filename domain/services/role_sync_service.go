package services

import (
	"context"
	"fmt"

	"backersync/domain/entities"
	"backersync/domain/events"
	"backersync/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RoleSyncService matches backers to guild members and grants their tier roles
type RoleSyncService struct {
	gateway   interfaces.CommunityGateway
	resolver  *RoleResolver
	extractor *HandleExtractor
	publisher interfaces.EventPublisher
	metrics   interfaces.SyncMetrics
}

// NewRoleSyncService creates a new role sync service. publisher and metrics may be nil.
func NewRoleSyncService(
	gateway interfaces.CommunityGateway,
	resolver *RoleResolver,
	extractor *HandleExtractor,
	publisher interfaces.EventPublisher,
	metrics interfaces.SyncMetrics,
) *RoleSyncService {
	return &RoleSyncService{
		gateway:   gateway,
		resolver:  resolver,
		extractor: extractor,
		publisher: publisher,
		metrics:   metrics,
	}
}

// SyncAll processes backers one at a time in the order given.
// It stops at the first fatal error and returns the report built so far alongside it.
func (s *RoleSyncService) SyncAll(ctx context.Context, runID string, guild *entities.Guild, backers []entities.Backer) (*entities.SyncReport, error) {
	report := &entities.SyncReport{
		RunID:    runID,
		GuildID:  guild.ID,
		Eligible: len(backers),
	}

	for _, backer := range backers {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := s.SyncBacker(ctx, runID, guild, backer)
		if err != nil {
			return report, err
		}
		report.Add(outcome)
	}

	return report, nil
}

// SyncBacker grants the tier role to a single backer's Discord member.
// A returned error is fatal for the run; every per-record problem is reported as a skipped outcome.
func (s *RoleSyncService) SyncBacker(ctx context.Context, runID string, guild *entities.Guild, backer entities.Backer) (entities.SyncOutcome, error) {
	role, err := s.resolver.Resolve(backer.TierName(), guild)
	if err != nil {
		return entities.SyncOutcome{}, err
	}

	username, ok := s.extractor.Extract(backer.DescriptionText())
	if !ok {
		return s.finish(runID, guild, entities.Skipped(entities.SkipNoHandle, backer, role, "", nil)), nil
	}

	member, err := s.gateway.FindMemberByName(ctx, guild.ID, username)
	if err != nil {
		// A failed lookup is treated like any other network failure on this record
		cause := fmt.Errorf("member lookup failed: %w", err)
		return s.finish(runID, guild, entities.Skipped(entities.SkipMemberNotFound, backer, role, username, cause)), nil
	}
	if member == nil {
		return s.finish(runID, guild, entities.Skipped(entities.SkipMemberNotFound, backer, role, username, nil)), nil
	}

	if err := s.gateway.AddRole(ctx, guild.ID, member.UserID, role.ID); err != nil {
		return s.finish(runID, guild, entities.Skipped(entities.SkipGrantFailed, backer, role, username, err)), nil
	}

	return s.finish(runID, guild, entities.Granted(backer, role, username, member)), nil
}

// finish logs, publishes and records an outcome
func (s *RoleSyncService) finish(runID string, guild *entities.Guild, outcome entities.SyncOutcome) entities.SyncOutcome {
	fields := log.Fields{
		"run_id":    runID,
		"backer_id": outcome.BackerID,
		"tier":      outcome.Tier,
		"role":      outcome.RoleName,
	}
	if outcome.Username != "" {
		fields["username"] = outcome.Username
	}

	var event events.Event
	if outcome.Kind == entities.OutcomeGranted {
		log.WithFields(fields).Info(outcome.Message())
		event = events.BackerRoleGrantedEvent{
			RunID:    runID,
			GuildID:  guild.ID,
			BackerID: outcome.BackerID,
			Tier:     outcome.Tier,
			RoleName: outcome.RoleName,
			Username: outcome.Username,
			MemberID: outcome.MemberID,
		}
	} else {
		fields["reason"] = outcome.Reason
		skipped := events.BackerSkippedEvent{
			RunID:    runID,
			GuildID:  guild.ID,
			BackerID: outcome.BackerID,
			Tier:     outcome.Tier,
			Reason:   string(outcome.Reason),
			Username: outcome.Username,
		}
		entry := log.WithFields(fields)
		if outcome.Err != nil {
			entry = entry.WithError(outcome.Err)
			skipped.Error = outcome.Err.Error()
		}
		entry.Error(outcome.Message())
		event = skipped
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(event); err != nil {
			log.WithError(err).WithField("event_type", event.Type()).Warn("Failed to publish sync event")
		}
	}
	if s.metrics != nil {
		s.metrics.RecordOutcome(outcome)
	}

	return outcome
}
