package cmd

import (
	"context"
	"fmt"
	"time"

	"backersync/application"
	"backersync/bot"
	"backersync/config"
	"backersync/domain/interfaces"
	"backersync/domain/services"
	"backersync/infrastructure"
	"backersync/infrastructure/notify"
	"backersync/infrastructure/observability"
	"backersync/infrastructure/opencollective"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func runSyncCommand(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}
	return Run(cmd.Context(), cfg)
}

// Run wires the sync components from cfg and performs one run
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithFields(log.Fields{
		"org":         cfg.OrgName,
		"guild_id":    cfg.GuildID,
		"handle_mode": cfg.HandleMode,
		"dry_run":     cfg.DryRun,
		"environment": cfg.Environment,
	}).Info("Starting backersync...")

	tierRoles, err := cfg.TierRolesFor()
	if err != nil {
		return err
	}

	// Initialize metrics
	metricsProvider := observability.NewMetricsProvider(cfg)
	if err := metricsProvider.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics provider")
		}
	}()

	// Initialize event publishing
	publisher, closePublisher, err := newEventPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Initialize run notifications
	var notifier interfaces.RunNotifier
	if cfg.SlackWebhookURL != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackWebhookURL)
	}

	// Initialize Discord bot
	discordBot, err := bot.New(bot.Config{Token: cfg.DiscordToken})
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	var gateway interfaces.CommunityGateway = discordBot.Gateway()
	if cfg.DryRun {
		log.Warn("Dry run enabled, no roles will be granted")
		gateway = bot.NewDryRunGateway(gateway)
	}

	syncService := services.NewRoleSyncService(
		gateway,
		services.NewRoleResolver(tierRoles),
		services.NewHandleExtractor(services.HandleMode(cfg.HandleMode)),
		publisher,
		metricsProvider,
	)

	runner := application.NewSyncRunner(
		application.RunnerConfig{OrgName: cfg.OrgName, GuildID: cfg.GuildID},
		application.RunnerDeps{
			Connection:  discordBot,
			Gateway:     gateway,
			Source:      opencollective.NewClient(cfg.OpenCollectiveBaseURL, cfg.OpenCollectiveTimeout, tierRoles, metricsProvider),
			SyncService: syncService,
			Publisher:   publisher,
			Metrics:     metricsProvider,
			Notifier:    notifier,
		},
	)

	_, err = runner.Run(ctx)
	return err
}

// newEventPublisher connects to NATS when servers are configured and falls back to a no-op publisher otherwise
func newEventPublisher(ctx context.Context, cfg *config.Config) (interfaces.EventPublisher, func(), error) {
	if cfg.NATSServers == "" {
		log.Debug("NATS_SERVERS not set, sync events will not be published")
		return infrastructure.NewNoopEventPublisher(), func() {}, nil
	}

	log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := natsClient.EnsureStream(infrastructure.SyncEventStream, mapper.GetAllSubjects()); err != nil {
		_ = natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	closeFn := func() {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	return infrastructure.NewNATSEventPublisher(natsClient, mapper), closeFn, nil
}
