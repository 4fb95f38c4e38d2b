package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backersync/domain/entities"
	"backersync/domain/events"
	"backersync/domain/interfaces"
	"backersync/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RunState is a stage of a sync run
type RunState string

const (
	StateStarting   RunState = "starting"
	StateConnected  RunState = "connected"
	StateFetching   RunState = "fetching"
	StateProcessing RunState = "processing"
	StateClosing    RunState = "closing"
	StateTerminated RunState = "terminated"
	StateAborted    RunState = "aborted"
)

// notifyTimeout bounds the end-of-run notification
const notifyTimeout = 10 * time.Second

// RunnerConfig identifies what a run syncs
type RunnerConfig struct {
	OrgName string
	GuildID string
}

// RunnerDeps holds the collaborators of a sync run. Publisher, Metrics and Notifier may be nil.
type RunnerDeps struct {
	Connection  interfaces.CommunityConnection
	Gateway     interfaces.CommunityGateway
	Source      interfaces.BackerSource
	SyncService *services.RoleSyncService
	Publisher   interfaces.EventPublisher
	Metrics     interfaces.SyncMetrics
	Notifier    interfaces.RunNotifier
}

// SyncRunner drives one sync run from connect to close
type SyncRunner struct {
	config   RunnerConfig
	deps     RunnerDeps
	newRunID func() string

	mu    sync.Mutex
	state RunState
}

// NewSyncRunner creates a runner in the starting state
func NewSyncRunner(config RunnerConfig, deps RunnerDeps) *SyncRunner {
	return &SyncRunner{
		config:   config,
		deps:     deps,
		newRunID: uuid.NewString,
		state:    StateStarting,
	}
}

// State returns the current stage of the run
func (r *SyncRunner) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run performs the sync. A fatal error moves the run straight to aborted and is
// returned together with whatever was processed before it; the connection is not closed.
func (r *SyncRunner) Run(ctx context.Context) (*entities.SyncReport, error) {
	runID := r.newRunID()
	logger := log.WithFields(log.Fields{
		"run_id":   runID,
		"org":      r.config.OrgName,
		"guild_id": r.config.GuildID,
	})
	logger.Info("Starting backer role sync")

	if err := r.deps.Connection.Connect(ctx); err != nil {
		return r.abort(ctx, logger, r.emptyReport(runID), fmt.Errorf("failed to connect to discord: %w", err))
	}
	r.transition(logger, StateConnected)

	guild, err := r.deps.Gateway.Guild(ctx, r.config.GuildID)
	if err != nil {
		return r.abort(ctx, logger, r.emptyReport(runID), err)
	}

	r.transition(logger, StateFetching)
	backers, err := r.deps.Source.FetchBackers(ctx, r.config.OrgName)
	if err != nil {
		return r.abort(ctx, logger, r.emptyReport(runID), fmt.Errorf("failed to fetch backers: %w", err))
	}
	logger.WithField("eligible", len(backers)).Info("Fetched eligible backers")

	r.transition(logger, StateProcessing)
	report, err := r.deps.SyncService.SyncAll(ctx, runID, guild, backers)
	if report != nil {
		report.OrgName = r.config.OrgName
	}
	if err != nil {
		return r.abort(ctx, logger, report, err)
	}

	r.transition(logger, StateClosing)
	if err := r.deps.Connection.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close discord connection")
	}

	r.transition(logger, StateTerminated)
	logger.WithFields(log.Fields{
		"eligible": report.Eligible,
		"granted":  report.GrantedCount(),
		"skipped":  report.SkippedCount(),
	}).Info("Backer role sync finished")

	r.publish(logger, events.SyncCompletedEvent{
		RunID:    runID,
		OrgName:  r.config.OrgName,
		GuildID:  report.GuildID,
		Eligible: report.Eligible,
		Granted:  report.GrantedCount(),
		Skipped:  report.SkippedCount(),
	})
	r.finish(ctx, logger, entities.RunResultCompleted, report, nil)

	return report, nil
}

// abort moves the run to the aborted state
func (r *SyncRunner) abort(ctx context.Context, logger *log.Entry, report *entities.SyncReport, err error) (*entities.SyncReport, error) {
	r.transition(logger, StateAborted)
	logger.WithError(err).Error("Backer role sync aborted")
	r.finish(ctx, logger, entities.RunResultAborted, report, err)
	return report, err
}

// emptyReport is the report of a run that aborted before processing any backer
func (r *SyncRunner) emptyReport(runID string) *entities.SyncReport {
	return &entities.SyncReport{
		RunID:   runID,
		OrgName: r.config.OrgName,
		GuildID: r.config.GuildID,
	}
}

// finish records the run result and sends the end-of-run notification
func (r *SyncRunner) finish(ctx context.Context, logger *log.Entry, result string, report *entities.SyncReport, runErr error) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordRun(result)
	}
	if r.deps.Notifier == nil {
		return
	}

	// The run context may already be cancelled
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := r.deps.Notifier.NotifyRun(notifyCtx, report, runErr); err != nil {
		logger.WithError(err).Warn("Failed to send run notification")
	}
}

func (r *SyncRunner) publish(logger *log.Entry, event events.Event) {
	if r.deps.Publisher == nil {
		return
	}
	if err := r.deps.Publisher.Publish(event); err != nil {
		logger.WithError(err).WithField("event_type", event.Type()).Warn("Failed to publish sync event")
	}
}

func (r *SyncRunner) transition(logger *log.Entry, next RunState) {
	r.mu.Lock()
	prev := r.state
	r.state = next
	r.mu.Unlock()
	logger.WithFields(log.Fields{"from": prev, "to": next}).Debug("Run state changed")
}
